/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llmtest provides a scripted llm.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"slices"
	"sync"

	"chainguard.dev/siteassist/agents/llm"
)

// ErrExhausted is returned once every scripted response has been consumed.
var ErrExhausted = errors.New("script exhausted")

// Model replays scripted responses in order and records every request.
type Model struct {
	mu        sync.Mutex
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

var _ llm.Model = (*Model)(nil)

// New returns a Model that answers with responses in order.
func New(responses ...*llm.Response) *Model {
	return &Model{responses: responses}
}

// FailFirst makes the next calls fail with errs, in order, before the
// scripted responses are replayed. A nil entry lets that call through.
func (m *Model) FailFirst(errs ...error) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

// Complete implements llm.Model.
func (m *Model) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Messages = slices.Clone(req.Messages)
	m.requests = append(m.requests, req)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(m.responses) == 0 {
		return nil, ErrExhausted
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// Requests returns the requests received so far.
func (m *Model) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Reply is a final response with content.
func Reply(content string) *llm.Response {
	return &llm.Response{Model: "test-model", Content: content}
}

// ToolUse is a response requesting a single tool call.
func ToolUse(id, name, arguments string) *llm.Response {
	return &llm.Response{
		Model:     "test-model",
		ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: arguments}},
		Usage:     llm.Usage{InputTokens: 10, OutputTokens: 2},
	}
}

// ToolResults returns the tool result messages of a conversation, in order.
func ToolResults(msgs []llm.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Role == llm.RoleTool {
			out = append(out, m.Content)
		}
	}
	return out
}
