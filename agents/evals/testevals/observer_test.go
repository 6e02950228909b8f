/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package testevals_test

import (
	"context"
	"testing"

	"chainguard.dev/siteassist/agents/evals"
	"chainguard.dev/siteassist/agents/evals/testevals"
)

func TestObserverPassesCleanTrace(t *testing.T) {
	tracer := evals.Tracer(testevals.NewPrefix(t, "clean"), evals.NoErrors(), evals.MaximumIterations(1))
	tr := tracer.NewTrace(context.Background(), "prompt")
	tr.RecordIteration("m", 1, 1)
	tr.Complete("Done.", nil)
}

func TestObserverLogs(t *testing.T) {
	testevals.New(t).Log("logged through testing.T")
}
