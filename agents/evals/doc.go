/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evals checks completed conversation turns.
//
// A Check inspects an agenttrace.Trace and reports problems to an Observer.
// Checks are attached to a turn through a tracer:
//
//	ctx = agenttrace.WithTracer(ctx, evals.Tracer(obs,
//		evals.RequiredToolCalls("propose_change"),
//		evals.NoErrors(),
//	))
//
// The testevals subpackage adapts *testing.T into an Observer so checks can
// run inside ordinary tests.
package evals
