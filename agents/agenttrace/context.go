/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// TurnContext carries request-level metadata about a conversation turn.
// It enriches spans and, through its bounded fields only, metrics.
type TurnContext struct {
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	PagePath  string `json:"page_path,omitempty"`
	// Surface names the entry point ("chat", "apply").
	Surface string `json:"surface,omitempty"`
}

// SpanAttributes returns every non-empty field as a span attribute.
func (c TurnContext) SpanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if c.RequestID != "" {
		attrs = append(attrs, attribute.String("request_id", c.RequestID))
	}
	if c.UserID != "" {
		attrs = append(attrs, attribute.String("user_id", c.UserID))
	}
	if c.PagePath != "" {
		attrs = append(attrs, attribute.String("page_path", c.PagePath))
	}
	if c.Surface != "" {
		attrs = append(attrs, attribute.String("surface", c.Surface))
	}
	return attrs
}

// EnrichAttributes appends the bounded fields of c to baseAttrs.
// Request, user and page identifiers are unbounded and stay on spans only.
func (c TurnContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+1)
	copy(attrs, baseAttrs)
	if c.Surface != "" {
		attrs = append(attrs, attribute.String("surface", c.Surface))
	}
	return attrs
}

type turnContextKey struct{}

// WithTurnContext attaches tc to ctx.
func WithTurnContext(ctx context.Context, tc TurnContext) context.Context {
	return context.WithValue(ctx, turnContextKey{}, tc)
}

// GetTurnContext returns the TurnContext attached to ctx, or the zero value.
func GetTurnContext(ctx context.Context) TurnContext {
	if tc, ok := ctx.Value(turnContextKey{}).(TurnContext); ok {
		return tc
	}
	return TurnContext{}
}
