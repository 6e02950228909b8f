/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace traces assistant conversation turns.

A Trace covers one turn: every model round trip is recorded as an
iteration and every tool invocation as a ToolCall with its own
OpenTelemetry span. Completed traces are handed to a Tracer; the default
tracer logs them through clog.

Attach request metadata before starting a turn:

	ctx = agenttrace.WithTurnContext(ctx, agenttrace.TurnContext{
		RequestID: "3f0c...",
		UserID:    "user-123",
		PagePath:  "/pricing",
		Surface:   "chat",
	})

Collect traces in tests:

	var traces []*agenttrace.Trace
	ctx = agenttrace.WithTracer(ctx, agenttrace.ByCode(func(t *agenttrace.Trace) {
		traces = append(traces, t)
	}))

	trace := agenttrace.StartTrace(ctx, "Change the price to $12")
	tc := trace.StartToolCall("call_1", "read_file", `{"path":"src/pages/pricing.html"}`)
	tc.Complete("<html>...</html>", nil)
	trace.Complete("Proposed the change.", nil)
*/
package agenttrace
