/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package chatexecutor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainguard.dev/siteassist/agents/agenttrace"
	"chainguard.dev/siteassist/agents/executor/chatexecutor"
	"chainguard.dev/siteassist/agents/executor/retry"
	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/llm/llmtest"
	"chainguard.dev/siteassist/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

type echoArgs struct {
	Text string `json:"text" jsonschema:"required"`
}

func (a *echoArgs) Validate() error {
	if a.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

func echoTools(t *testing.T, calls *[]string) *toolcall.Set {
	t.Helper()
	echo, err := toolcall.New("echo", "Echo text", func(_ context.Context, args echoArgs) (string, error) {
		*calls = append(*calls, args.Text)
		return "echo: " + args.Text, nil
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	fail, err := toolcall.New("fail", "Always fails", func(context.Context, struct{}) (string, error) {
		return "", errors.New("boom")
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	set, err := toolcall.NewSet(echo, fail)
	if err != nil {
		t.Fatalf("NewSet() = %v", err)
	}
	return set
}

func newExecutor(t *testing.T, opts ...chatexecutor.Option) *chatexecutor.Executor {
	t.Helper()
	opts = append([]chatexecutor.Option{chatexecutor.WithRetryConfig(retry.Disabled())}, opts...)
	e, err := chatexecutor.New(opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return e
}

func request() llm.Request {
	return llm.Request{
		Model:    "test-model",
		System:   "be helpful",
		Messages: []llm.Message{llm.UserMessage("hello")},
	}
}

func TestExecuteDirectReply(t *testing.T) {
	model := llmtest.New(llmtest.Reply("Hi there"))
	res, err := newExecutor(t).Execute(context.Background(), model, request(), nil)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Reply != "Hi there" || res.Iterations != 1 || res.Truncated {
		t.Errorf("Execute(): got = %+v", res)
	}
	if got := model.Requests()[0]; len(got.Tools) != 0 || got.MaxTokens != chatexecutor.DefaultMaxTokens || got.System != "be helpful" {
		t.Errorf("request: got = %+v", got)
	}
}

func TestExecuteEmptyReply(t *testing.T) {
	model := llmtest.New(llmtest.Reply(""))
	res, err := newExecutor(t).Execute(context.Background(), model, request(), nil)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Reply != chatexecutor.EmptyReply {
		t.Errorf("Reply: got = %q, wanted = %q", res.Reply, chatexecutor.EmptyReply)
	}
}

func TestExecuteToolLoop(t *testing.T) {
	var calls []string
	model := llmtest.New(
		&llm.Response{
			Model:   "test-model",
			Content: "checking",
			ToolCalls: []llm.ToolCall{
				{ID: "a", Name: "echo", Arguments: `{"text":"one"}`},
				{ID: "b", Name: "echo", Arguments: `{"text":"two"}`},
			},
		},
		llmtest.ToolUse("c", "missing", `{}`),
		llmtest.ToolUse("d", "fail", `{}`),
		llmtest.ToolUse("e", "echo", `{"text":`),
		llmtest.Reply("All done"),
	)

	var traces []*agenttrace.Trace
	ctx := agenttrace.WithTracer(context.Background(), agenttrace.ByCode(func(tr *agenttrace.Trace) {
		traces = append(traces, tr)
	}))

	res, err := newExecutor(t).Execute(ctx, model, request(), echoTools(t, &calls))
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Reply != "All done" || res.Iterations != 5 {
		t.Errorf("Execute(): got = %+v", res)
	}
	if diff := cmp.Diff([]string{"one", "two"}, calls); diff != "" {
		t.Errorf("tool calls (-want, +got): %s", diff)
	}

	// Every request sees the tool definitions.
	if got := len(model.Requests()[0].Tools); got != 2 {
		t.Errorf("tools offered: got = %d, wanted = 2", got)
	}

	var results []string
	for _, m := range res.Messages {
		if m.Role == llm.RoleTool {
			results = append(results, m.ToolCallID+"="+m.Content)
		}
	}
	if len(results) != 5 {
		t.Fatalf("tool results: got = %v", results)
	}
	if results[0] != "a=echo: one" || results[1] != "b=echo: two" {
		t.Errorf("ordered results: got = %v", results[:2])
	}
	for i, want := range []string{"c=Error: unknown tool: missing", "d=Error: boom", "e=Error: invalid tool arguments"} {
		if !strings.HasPrefix(results[i+2], want) {
			t.Errorf("result %d: got = %q, wanted prefix %q", i+2, results[i+2], want)
		}
	}

	// The second request carries the assistant message followed by both results.
	second := model.Requests()[1].Messages
	if len(second) != 4 || second[1].Role != llm.RoleAssistant || len(second[1].ToolCalls) != 2 {
		t.Errorf("second request messages: got = %+v", second)
	}

	if len(traces) != 1 {
		t.Fatalf("traces: got = %d, wanted = 1", len(traces))
	}
	if got := len(traces[0].ToolCalls); got != 5 {
		t.Errorf("traced tool calls: got = %d, wanted = 5", got)
	}
	if traces[0].Iterations != 5 {
		t.Errorf("traced iterations: got = %d, wanted = 5", traces[0].Iterations)
	}
}

func TestExecuteIterationCeiling(t *testing.T) {
	var calls []string
	model := llmtest.New(
		llmtest.ToolUse("x", "echo", `{"text":"again"}`),
		llmtest.ToolUse("x", "echo", `{"text":"again"}`),
		llmtest.ToolUse("x", "echo", `{"text":"again"}`),
	)

	res, err := newExecutor(t, chatexecutor.WithMaxIterations(3)).Execute(context.Background(), model, request(), echoTools(t, &calls))
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if !res.Truncated || res.Reply != chatexecutor.TruncatedReply || res.Iterations != 3 {
		t.Errorf("Execute(): got = %+v", res)
	}
	if got := len(model.Requests()); got != 3 {
		t.Errorf("model calls: got = %d, wanted = 3", got)
	}
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	model := llmtest.New(llmtest.Reply("ok")).FailFirst(&llm.APIError{StatusCode: 529})
	e := newExecutor(t, chatexecutor.WithRetryConfig(retry.Config{
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	}))

	res, err := e.Execute(context.Background(), model, request(), nil)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Reply != "ok" || res.Iterations != 1 {
		t.Errorf("Execute(): got = %+v", res)
	}
	if got := len(model.Requests()); got != 2 {
		t.Errorf("model calls: got = %d, wanted = 2", got)
	}
}

func TestExecuteModelError(t *testing.T) {
	model := llmtest.New().FailFirst(&llm.APIError{StatusCode: 400, Body: "bad request"})
	_, err := newExecutor(t).Execute(context.Background(), model, request(), nil)
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Errorf("Execute(): got = %v, wanted APIError 400", err)
	}
}

func TestExecuteDoesNotMutateRequest(t *testing.T) {
	model := llmtest.New(llmtest.Reply("hi"))
	req := request()
	if _, err := newExecutor(t).Execute(context.Background(), model, req, nil); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if len(req.Messages) != 1 {
		t.Errorf("caller messages: got = %d, wanted = 1", len(req.Messages))
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  chatexecutor.Option
	}{
		{"zero iterations", chatexecutor.WithMaxIterations(0)},
		{"negative tokens", chatexecutor.WithMaxTokens(-1)},
		{"nil metrics", chatexecutor.WithMetrics(nil)},
		{"bad retry", chatexecutor.WithRetryConfig(retry.Config{MaxRetries: -1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := chatexecutor.New(tt.opt); err == nil {
				t.Error("New(): got = nil, wanted error")
			}
		})
	}
}
