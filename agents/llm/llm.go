/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llm defines a provider-independent chat model interface with tool
// calling. Adapters live in the openaillm and claudellm subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model's request to invoke a tool. Arguments is the raw JSON
// text produced by the model and may be malformed.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of a conversation. Assistant messages may carry
// ToolCalls; tool messages carry the ToolCallID they answer.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// UserMessage returns a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage returns the result of the tool call with the given id.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Tool describes a tool offered to the model. Parameters is a JSON schema
// object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single completion request.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int64
}

// Usage reports token consumption of one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's answer. Either ToolCalls is non-empty, or Content
// is the final reply (possibly empty).
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
	Model     string
}

// Model completes conversations.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrNoChoices is returned when the provider answered without any choice.
var ErrNoChoices = errors.New("no response from model")

// APIError is a non-success response from the model provider.
type APIError struct {
	StatusCode int
	// Body is the provider's error payload, truncated.
	Body string
	Err  error
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("model provider error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("model provider error (%d): %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether err is a rate limit, overload or transient
// server error worth retrying.
func Retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case 429, 500, 502, 503, 504, 529:
		return true
	}
	return false
}

// Truncate shortens s to at most n bytes on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
