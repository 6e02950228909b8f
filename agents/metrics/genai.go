/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI records OpenTelemetry metrics for model usage in conversation turns:
// token counts, tool calls and turn outcomes. A counter that fails to
// initialize is replaced with a no-op rather than failing the caller.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	turns            metric.Int64Counter
	iterations       metric.Int64Histogram
	attrEnricher     AttributeEnricher
}

// NewGenAI creates a GenAI metrics instance on the named meter.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metric will be disabled", "error", err, "meter", meterName, "metric", name)
			return noop.Int64Counter{}
		}
		return c
	}

	iterations, err := meter.Int64Histogram("genai.turn.iterations",
		metric.WithDescription("Model round trips per conversation turn"),
		metric.WithUnit("{iterations}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 10))
	if err != nil {
		slog.Warn("Failed to create iterations histogram, metric will be disabled", "error", err, "meter", meterName)
		iterations = noop.Int64Histogram{}
	}

	return &GenAI{
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter("genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
		turns:            counter("genai.turns", "Conversation turns by outcome", "{turns}"),
		iterations:       iterations,
	}
}

// SetAttributeEnricher sets a hook that adds contextual attributes to every
// recorded metric.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attrs(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records prompt and completion token usage for one model call.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := m.attrs(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordToolCall records a tool invocation and whether it succeeded.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, ok bool, attrs ...attribute.KeyValue) {
	m.toolCalls.Add(ctx, 1, m.attrs(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
		attribute.Bool("ok", ok),
	}, attrs))
}

// RecordTurn records the outcome of a turn ("done", "truncated" or "error")
// and how many model round trips it took.
func (m *GenAI) RecordTurn(ctx context.Context, model, outcome string, iterations int, attrs ...attribute.KeyValue) {
	base := []attribute.KeyValue{attribute.String("model", model), attribute.String("outcome", outcome)}
	m.turns.Add(ctx, 1, m.attrs(ctx, base, attrs))
	m.iterations.Record(ctx, int64(iterations), m.attrs(ctx, base, attrs))
}
