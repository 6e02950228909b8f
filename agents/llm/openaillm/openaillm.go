/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaillm adapts OpenAI-compatible chat completion endpoints,
// such as an AI gateway, to llm.Model.
package openaillm

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// maxErrorBody bounds how much of a provider error payload is surfaced.
const maxErrorBody = 200

// Model is an llm.Model backed by the chat completions API.
type Model struct {
	client openai.Client
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
	return &Model{client: openai.NewClient(all...)}, nil
}

// Complete implements llm.Model.
func (m *Model) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toMessages(req.System, req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &llm.APIError{
				StatusCode: apiErr.StatusCode,
				Body:       llm.Truncate(apiErr.RawJSON(), maxErrorBody),
				Err:        err,
			}
		}
		return nil, fmt.Errorf("calling chat completions: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, llm.ErrNoChoices
	}

	msg := completion.Choices[0].Message
	resp := &llm.Response{
		Content: msg.Content,
		Model:   completion.Model,
		Usage: llm.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp, nil
}

func toMessages(system string, msgs []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case llm.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case llm.RoleAssistant:
			am := &openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				am.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
			}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: am})
		}
	}
	return out
}

func toTools(tools []llm.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}
	return out
}
