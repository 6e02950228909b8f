/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import "context"

// Tracer creates traces and receives them once they complete.
type Tracer interface {
	NewTrace(ctx context.Context, prompt string) *Trace
	RecordTrace(trace *Trace)
}

// ByCode returns a Tracer that passes each completed trace to callback.
func ByCode(callback func(*Trace)) Tracer {
	return byCode(callback)
}

type byCode func(*Trace)

func (b byCode) NewTrace(ctx context.Context, prompt string) *Trace {
	return newTrace(ctx, b, prompt)
}

func (b byCode) RecordTrace(trace *Trace) {
	b(trace)
}

type tracerKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, t)
}

// TracerFromContext returns the Tracer attached to ctx, or a tracer that
// logs completed traces through clog.
func TracerFromContext(ctx context.Context) Tracer {
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return NewDefaultTracer(ctx)
}

// StartTrace starts a trace using the tracer in ctx.
func StartTrace(ctx context.Context, prompt string) *Trace {
	return TracerFromContext(ctx).NewTrace(ctx, prompt)
}
