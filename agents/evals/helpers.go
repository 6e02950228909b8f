/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"chainguard.dev/siteassist/agents/agenttrace"
)

// ExactToolCalls checks the trace has exactly n tool calls.
func ExactToolCalls(n int) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		if got := len(trace.ToolCalls); got != n {
			o.Fail(fmt.Sprintf("tool call count: got = %d, wanted = %d", got, n))
		}
	}
}

// MaximumNToolCalls checks the trace has at most n tool calls.
func MaximumNToolCalls(n int) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		if got := len(trace.ToolCalls); got > n {
			o.Fail(fmt.Sprintf("tool call count: got = %d, wanted <= %d", got, n))
		}
	}
}

// NoToolCalls checks the trace made no tool calls.
func NoToolCalls() Check {
	return ExactToolCalls(0)
}

// OnlyToolCalls checks the trace only used the named tools.
func OnlyToolCalls(names ...string) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		for _, tc := range trace.ToolCalls {
			if !slices.Contains(names, tc.Name) {
				o.Fail(fmt.Sprintf("unexpected tool call %q, only allowed: %v", tc.Name, names))
				return
			}
		}
	}
}

// RequiredToolCalls checks every named tool was called at least once.
func RequiredToolCalls(names ...string) Check {
	base := make(map[string]struct{}, len(names))
	for _, n := range names {
		base[n] = struct{}{}
	}
	return func(o Observer, trace *agenttrace.Trace) {
		required := maps.Clone(base)
		for _, tc := range trace.ToolCalls {
			delete(required, tc.Name)
		}
		if len(required) > 0 {
			o.Fail(fmt.Sprintf("missing required tool calls: %v", slices.Sorted(maps.Keys(required))))
		}
	}
}

// ToolCallNamed runs validator on every call of the named tool and fails
// when there is none.
func ToolCallNamed(name string, validator func(*agenttrace.ToolCall) error) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		found := false
		for _, tc := range trace.ToolCalls {
			if tc.Name != name {
				continue
			}
			found = true
			if err := validator(tc); err != nil {
				o.Fail(fmt.Sprintf("tool call %s validation failed: %v", name, err))
				return
			}
		}
		if !found {
			o.Fail(fmt.Sprintf("tool call named %q: got = not found, wanted = found", name))
		}
	}
}

// NoErrors checks neither the turn nor any tool call failed. Tool failures
// rendered back to the model as "Error: ..." count as failures.
func NoErrors() Check {
	return func(o Observer, trace *agenttrace.Trace) {
		if trace.Error != nil {
			o.Fail(fmt.Sprintf("trace error: got = %v, wanted = nil", trace.Error))
			return
		}
		for _, tc := range trace.ToolCalls {
			if tc.Error != nil || strings.HasPrefix(tc.Result, "Error: ") {
				o.Fail(fmt.Sprintf("tool call %s error: got = %v %q, wanted = nil", tc.Name, tc.Error, tc.Result))
				return
			}
		}
	}
}

// MaximumIterations checks the turn took at most n model calls.
func MaximumIterations(n int) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		if trace.Iterations > n {
			o.Fail(fmt.Sprintf("iterations: got = %d, wanted <= %d", trace.Iterations, n))
		}
	}
}

// ResultContains checks the final reply contains substr.
func ResultContains(substr string) Check {
	return func(o Observer, trace *agenttrace.Trace) {
		if !strings.Contains(trace.Result, substr) {
			o.Fail(fmt.Sprintf("result: got = %q, wanted to contain %q", trace.Result, substr))
		}
	}
}
