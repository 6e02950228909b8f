/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package chatexecutor runs a bounded tool-calling conversation against an
// llm.Model.
//
// Each iteration sends the conversation to the model. When the model asks
// for tools, the calls are executed one at a time, in order, and their
// results are appended before the next iteration. A response without tool
// calls ends the turn. When the iteration ceiling is reached first the turn
// ends with a fixed reply and Result.Truncated set.
//
//	exec, err := chatexecutor.New(chatexecutor.WithMaxIterations(10))
//	if err != nil {
//		return err
//	}
//	res, err := exec.Execute(ctx, model, llm.Request{
//		Model:    "anthropic/claude-sonnet-4.5",
//		System:   system,
//		Messages: history,
//	}, tools)
//
// Tool failures, including unknown tool names and malformed arguments, are
// reported back to the model as text and never abort the turn. Model
// failures are retried according to the configured retry.Config and then
// returned.
package chatexecutor
