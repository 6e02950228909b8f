/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudellm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chainguard.dev/siteassist/agents/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/go-cmp/cmp"
)

func TestToMessagesMergesToolResults(t *testing.T) {
	msgs := toMessages([]llm.Message{
		llm.UserMessage("change the price"),
		llm.AssistantMessage("Reading both files.",
			llm.ToolCall{ID: "a", Name: "read_file", Arguments: `{"path":"x"}`},
			llm.ToolCall{ID: "b", Name: "read_file", Arguments: `not json`},
		),
		llm.ToolMessage("a", "x contents"),
		llm.ToolMessage("b", "y contents"),
	})

	if len(msgs) != 3 {
		t.Fatalf("messages: got = %d, wanted = 3", len(msgs))
	}
	roles := []anthropic.MessageParamRole{msgs[0].Role, msgs[1].Role, msgs[2].Role}
	want := []anthropic.MessageParamRole{anthropic.MessageParamRoleUser, anthropic.MessageParamRoleAssistant, anthropic.MessageParamRoleUser}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Errorf("roles (-want, +got): %s", diff)
	}
	if got := len(msgs[1].Content); got != 3 {
		t.Errorf("assistant blocks: got = %d, wanted = 3", got)
	}
	if got := len(msgs[2].Content); got != 2 {
		t.Errorf("tool result blocks: got = %d, wanted = 2", got)
	}
	if in := msgs[1].Content[2].OfToolUse.Input; string(in.(json.RawMessage)) != "{}" {
		t.Errorf("invalid arguments input: got = %s, wanted = {}", in)
	}
}

func TestToTools(t *testing.T) {
	tools := toTools([]llm.Tool{{
		Name:        "read_file",
		Description: "Read a file",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []any{"path"},
		},
	}})
	if len(tools) != 1 || tools[0].OfTool == nil {
		t.Fatalf("toTools(): got = %+v", tools)
	}
	if diff := cmp.Diff([]string{"path"}, tools[0].OfTool.InputSchema.Required); diff != "" {
		t.Errorf("required (-want, +got): %s", diff)
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path: got = %q, wanted = /v1/messages", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "claude-sonnet-4-5" {
			t.Errorf("model: got = %v", body["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"Let me look."},{"type":"tool_use","id":"tu_1","name":"read_file","input":{"path":"a"}}],
			"stop_reason":"tool_use","usage":{"input_tokens":5,"output_tokens":6}}`))
	}))
	defer srv.Close()

	m, err := New("key", option.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	resp, err := m.Complete(context.Background(), llm.Request{
		Model:     "claude-sonnet-4-5",
		System:    "sys",
		MaxTokens: 1024,
		Messages:  []llm.Message{llm.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	want := &llm.Response{
		Content:   "Let me look.",
		Model:     "claude-sonnet-4-5",
		ToolCalls: []llm.ToolCall{{ID: "tu_1", Name: "read_file", Arguments: `{"path":"a"}`}},
		Usage:     llm.Usage{InputTokens: 5, OutputTokens: 6},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("Complete() (-want, +got): %s", diff)
	}
}

func TestCompleteOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	m, err := New("key", option.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	_, err = m.Complete(context.Background(), llm.Request{Model: "claude-sonnet-4-5", MaxTokens: 10, Messages: []llm.Message{llm.UserMessage("hi")}})
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 529 {
		t.Fatalf("Complete(): got = %v, wanted APIError 529", err)
	}
	if !llm.Retryable(err) {
		t.Error("Retryable(529): got = false, wanted true")
	}
}
