/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/siteassist/agents/agenttrace"

func tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// ToolCall is a single tool invocation within a trace.
type ToolCall struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Arguments string    `json:"arguments"`
	Result    string    `json:"result"`
	Error     error     `json:"error,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	trace *Trace
	mu    sync.Mutex
	ctx   context.Context
	span  oteltrace.Span
}

// Trace is a whole conversation turn, from the latest user message to the reply.
type Trace struct {
	ID          string         `json:"id"`
	InputPrompt string         `json:"input_prompt"`
	Turn        TurnContext    `json:"turn,omitempty"`
	ToolCalls   []*ToolCall    `json:"tool_calls"`
	Iterations  int            `json:"iterations"`
	Result      string         `json:"result"`
	Error       error          `json:"error,omitempty"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	tracer Tracer
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

func newTrace(ctx context.Context, t Tracer, prompt string) *Trace {
	tc := GetTurnContext(ctx)
	attrs := append([]attribute.KeyValue{attribute.String("agent.prompt", truncate(prompt, 1000))}, tc.SpanAttributes()...)
	ctx, span := tracer().Start(ctx, "agent.turn", oteltrace.WithAttributes(attrs...))

	return &Trace{
		ID:          uuid.NewString(),
		InputPrompt: prompt,
		Turn:        tc,
		ToolCalls:   []*ToolCall{},
		StartTime:   time.Now(),
		Metadata:    map[string]any{},
		tracer:      t,
		ctx:         ctx,
		span:        span,
	}
}

// Context returns the context carrying the trace's span.
func (t *Trace) Context() context.Context { return t.ctx }

// StartToolCall opens a child span for a tool invocation.
func (t *Trace) StartToolCall(id, name, arguments string) *ToolCall {
	ctx, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))
	return &ToolCall{
		ID:        id,
		Name:      name,
		Arguments: arguments,
		StartTime: time.Now(),
		trace:     t,
		ctx:       ctx,
		span:      span,
	}
}

// RecordIteration records one model round trip and its token usage.
func (t *Trace) RecordIteration(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Iterations++
	if t.span != nil {
		t.span.AddEvent("model.response", oteltrace.WithAttributes(
			attribute.String("model", model),
			attribute.Int("iteration", t.Iterations),
			attribute.Int64("tokens.input", inputTokens),
			attribute.Int64("tokens.output", outputTokens),
		))
	}
}

// SetMetadata attaches a key/value pair to the trace and its span.
func (t *Trace) SetMetadata(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata[key] = value
	if t.span != nil {
		t.span.SetAttributes(attribute.String(key, fmt.Sprint(value)))
	}
}

// Complete ends the tool call span and adds the call to its trace.
func (tc *ToolCall) Complete(result string, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	span := tc.span
	tc.mu.Unlock()

	endSpan(span, err)

	tc.trace.mu.Lock()
	defer tc.trace.mu.Unlock()
	tc.trace.ToolCalls = append(tc.trace.ToolCalls, tc)
}

// Duration returns how long the tool call ran, or has been running.
func (tc *ToolCall) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete ends the trace and hands it to its tracer.
func (t *Trace) Complete(result string, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	span := t.span
	rec := t.tracer
	iterations := t.Iterations
	t.mu.Unlock()

	if span != nil {
		span.SetAttributes(attribute.Int("agent.iterations", iterations))
	}
	endSpan(span, err)
	rec.RecordTrace(t)
}

// Duration returns how long the trace ran, or has been running.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String renders a human readable summary.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Prompt: %q\n", truncate(t.InputPrompt, 200))
	fmt.Fprintf(&sb, "Iterations: %d\n", t.Iterations)

	if len(t.ToolCalls) == 0 {
		sb.WriteString("No tool calls\n")
	} else {
		fmt.Fprintf(&sb, "Tool Calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			fmt.Fprintf(&sb, "  [%d] %s (ID: %s)\n", i+1, tc.Name, tc.ID)
			if tc.Error != nil {
				fmt.Fprintf(&sb, "      Error: %v\n", tc.Error)
			} else {
				fmt.Fprintf(&sb, "      Result: %s\n", truncate(tc.Result, 200))
			}
		}
	}

	if t.Error != nil {
		fmt.Fprintf(&sb, "Error: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "Result: %s\n", truncate(t.Result, 500))
	}
	return sb.String()
}

func endSpan(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
