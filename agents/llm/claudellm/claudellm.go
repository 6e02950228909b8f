/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudellm adapts the Anthropic Messages API to llm.Model.
package claudellm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const maxErrorBody = 200

// Model is an llm.Model backed by Claude.
type Model struct {
	client anthropic.Client
}

var _ llm.Model = (*Model)(nil)

// New creates a Model. SDK level retries are disabled; callers retry with
// their own policy.
func New(apiKey string, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("api key cannot be empty")
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &Model{client: anthropic.NewClient(all...)}, nil
}

// Complete implements llm.Model.
func (m *Model) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toMessages(req.Messages),
		Tools:     toTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &llm.APIError{
				StatusCode: apiErr.StatusCode,
				Body:       llm.Truncate(apiErr.RawJSON(), maxErrorBody),
				Err:        err,
			}
		}
		return nil, fmt.Errorf("calling messages: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, llm.ErrNoChoices
	}

	resp := &llm.Response{
		Model: string(message.Model),
		Usage: llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}
	for _, content := range message.Content {
		switch content.Type {
		case "text":
			resp.Content += content.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:        content.ID,
				Name:      content.Name,
				Arguments: string(content.Input),
			})
		}
	}
	return resp, nil
}

// toMessages converts a conversation. Claude expects tool results as user
// content blocks, so consecutive tool messages are merged into one message.
func toMessages(msgs []llm.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var pending []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(pending) > 0 {
			out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: pending})
			pending = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleTool:
			pending = append(pending, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: m.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: m.Content},
					}},
				},
			})
		case llm.RoleUser:
			flush()
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		case llm.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: toolInput(tc.Arguments),
					},
				})
			}
			out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: blocks})
		}
	}
	flush()
	return out
}

// toolInput returns arguments as raw JSON, substituting an empty object for
// text that is not valid JSON so the request still encodes.
func toolInput(arguments string) json.RawMessage {
	if arguments == "" || !json.Valid([]byte(arguments)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(arguments)
}

func toTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: t.Parameters["properties"]}
		switch req := t.Parameters["required"].(type) {
		case []string:
			schema.Required = req
		case []any:
			for _, r := range req {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}
