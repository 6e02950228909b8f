/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package chatexecutor

import (
	"context"
	"fmt"
	"slices"

	"chainguard.dev/siteassist/agents/agenttrace"
	"chainguard.dev/siteassist/agents/executor/retry"
	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/metrics"
	"chainguard.dev/siteassist/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMaxIterations bounds the model round trips of a turn.
	DefaultMaxIterations = 10
	// DefaultMaxTokens is the response limit sent with each request.
	DefaultMaxTokens = 8192

	// EmptyReply stands in for a final response without content.
	EmptyReply = "Done."
	// TruncatedReply is returned when the iteration ceiling is reached.
	TruncatedReply = "I ran out of steps. Try a simpler request."
)

// Executor runs conversation turns. It holds no per-turn state and is safe
// for concurrent use.
type Executor struct {
	maxIterations int
	maxTokens     int64
	retry         retry.Config
	metrics       *metrics.GenAI
}

// Result is the outcome of a turn.
type Result struct {
	Reply string
	// Model is the model that produced the last response.
	Model string
	// Messages is the full conversation including the tool exchanges.
	Messages   []llm.Message
	Iterations int
	Truncated  bool
}

// New creates an Executor.
func New(opts ...Option) (*Executor, error) {
	e := &Executor{
		maxIterations: DefaultMaxIterations,
		maxTokens:     DefaultMaxTokens,
		retry:         retry.DefaultConfig(),
		metrics:       metrics.NewGenAI("chainguard.dev/siteassist/agents/executor/chatexecutor"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	e.metrics.SetAttributeEnricher(func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return agenttrace.GetTurnContext(ctx).EnrichAttributes(base)
	})
	return e, nil
}

// Execute runs one turn. req.Tools is replaced by the definitions of tools;
// a nil tools offers none.
func (e *Executor) Execute(ctx context.Context, model llm.Model, req llm.Request, tools *toolcall.Set) (_ *Result, err error) {
	trace := agenttrace.StartTrace(ctx, lastUserContent(req.Messages))
	ctx = trace.Context()
	log := clog.FromContext(ctx).With("model", req.Model)

	res := &Result{Model: req.Model}
	defer func() {
		outcome := "completed"
		switch {
		case err != nil:
			outcome = "error"
			trace.Complete("", err)
		case res.Truncated:
			outcome = "truncated"
			trace.SetMetadata("truncated", true)
			trace.Complete(res.Reply, nil)
		default:
			trace.Complete(res.Reply, nil)
		}
		e.metrics.RecordTurn(ctx, req.Model, outcome, res.Iterations)
	}()

	req.Messages = slices.Clone(req.Messages)
	req.Tools = tools.Definitions()
	if req.MaxTokens == 0 {
		req.MaxTokens = e.maxTokens
	}

	for res.Iterations < e.maxIterations {
		resp, err := retry.Do(ctx, e.retry, "model completion", llm.Retryable,
			func(ctx context.Context) (*llm.Response, error) {
				return model.Complete(ctx, req)
			})
		if err != nil {
			return nil, fmt.Errorf("completing iteration %d: %w", res.Iterations+1, err)
		}
		res.Iterations++
		if resp.Model != "" {
			res.Model = resp.Model
		}
		trace.RecordIteration(res.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		e.metrics.RecordTokens(ctx, res.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

		if len(resp.ToolCalls) == 0 {
			res.Reply = resp.Content
			if res.Reply == "" {
				res.Reply = EmptyReply
			}
			req.Messages = append(req.Messages, llm.AssistantMessage(resp.Content))
			res.Messages = req.Messages
			log.With("iterations", res.Iterations).Debug("Turn completed")
			return res, nil
		}

		req.Messages = append(req.Messages, llm.AssistantMessage(resp.Content, resp.ToolCalls...))
		for _, call := range resp.ToolCalls {
			req.Messages = append(req.Messages, llm.ToolMessage(call.ID, e.runTool(ctx, trace, res.Model, tools, call)))
		}
	}

	log.With("iterations", res.Iterations).Warn("Iteration ceiling reached")
	res.Reply = TruncatedReply
	res.Truncated = true
	res.Messages = req.Messages
	return res, nil
}

// runTool dispatches call and renders any failure as the tool result.
func (e *Executor) runTool(ctx context.Context, trace *agenttrace.Trace, model string, tools *toolcall.Set, call llm.ToolCall) string {
	tc := trace.StartToolCall(call.ID, call.Name, call.Arguments)
	out, err := tools.Dispatch(ctx, call)
	if err != nil {
		clog.FromContext(ctx).With("tool", call.Name).Warnf("Tool call failed: %v", err)
		out = "Error: " + err.Error()
	}
	tc.Complete(out, err)
	e.metrics.RecordToolCall(ctx, model, call.Name, err == nil)
	return out
}

func lastUserContent(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
