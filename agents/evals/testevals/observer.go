/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package testevals

import (
	"testing"

	"chainguard.dev/siteassist/agents/evals"
)

type observer struct {
	tb     testing.TB
	prefix string
}

// New creates an Observer that reports failures through tb.
func New(tb testing.TB) evals.Observer {
	return &observer{tb: tb}
}

// NewPrefix is New with every message prefixed.
func NewPrefix(tb testing.TB, prefix string) evals.Observer {
	return &observer{tb: tb, prefix: prefix}
}

func (o *observer) Fail(msg string) {
	o.tb.Helper()
	if o.prefix != "" {
		o.tb.Errorf("%s: %s", o.prefix, msg)
		return
	}
	o.tb.Error(msg)
}

func (o *observer) Log(msg string) {
	o.tb.Helper()
	if o.prefix != "" {
		o.tb.Logf("%s: %s", o.prefix, msg)
		return
	}
	o.tb.Log(msg)
}
