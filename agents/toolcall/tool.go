/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/schema"
	"github.com/kaptinlin/jsonrepair"
)

// ErrBadArguments is returned when tool arguments cannot be decoded or fail validation.
var ErrBadArguments = errors.New("invalid tool arguments")

// Handler executes a call and returns the text handed back to the model.
type Handler func(ctx context.Context, call llm.ToolCall) (string, error)

// Tool pairs a definition with the handler that serves it.
type Tool struct {
	Def     llm.Tool
	Handler Handler
}

// Validator is implemented by argument types with constraints beyond their schema.
type Validator interface {
	Validate() error
}

// New declares a tool whose parameters are reflected from Args.
func New[Args any](name, description string, fn func(ctx context.Context, args Args) (string, error)) (Tool, error) {
	if name == "" {
		return Tool{}, errors.New("tool name cannot be empty")
	}
	params, err := schema.Parameters[Args]()
	if err != nil {
		return Tool{}, fmt.Errorf("reflecting %s parameters: %w", name, err)
	}
	return Tool{
		Def: llm.Tool{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		Handler: func(ctx context.Context, call llm.ToolCall) (string, error) {
			args, err := Decode[Args](call.Arguments)
			if err != nil {
				return "", err
			}
			return fn(ctx, args)
		},
	}, nil
}

// Decode parses raw model arguments into T. Models occasionally emit
// almost-JSON (trailing commas, single quotes, truncated objects), so a
// failed parse is retried once after repair.
func Decode[T any](raw string) (T, error) {
	var args T
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return args, fmt.Errorf("%w: %w", ErrBadArguments, err)
		}
		args = *new(T)
		if err := json.Unmarshal([]byte(repaired), &args); err != nil {
			return args, fmt.Errorf("%w: %w", ErrBadArguments, err)
		}
	}
	if v, ok := any(&args).(Validator); ok {
		if err := v.Validate(); err != nil {
			return args, fmt.Errorf("%w: %w", ErrBadArguments, err)
		}
	}
	return args, nil
}

// Error renders a JSON error object as a tool result.
func Error(format string, args ...any) string {
	b, err := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, fmt.Sprintf(format, args...))
	}
	return string(b)
}
