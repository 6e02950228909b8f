/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"fmt"
	"sync"

	"chainguard.dev/siteassist/agents/agenttrace"
)

// Observer receives the outcome of checks.
type Observer interface {
	// Fail marks the check as failed.
	Fail(string)
	// Log records a message.
	Log(string)
}

// Check inspects a completed trace.
type Check func(Observer, *agenttrace.Trace)

// Tracer returns a tracer that runs every check against each completed trace.
func Tracer(obs Observer, checks ...Check) agenttrace.Tracer {
	return agenttrace.ByCode(func(tr *agenttrace.Trace) {
		for _, check := range checks {
			check(obs, tr)
		}
	})
}

// Recorder is an Observer that keeps failures in memory.
type Recorder struct {
	mu       sync.Mutex
	failures []string
	logs     []string
}

var _ Observer = (*Recorder)(nil)

// Fail implements Observer.
func (r *Recorder) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

// Log implements Observer.
func (r *Recorder) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, msg)
}

// Failures returns the recorded failures in order.
func (r *Recorder) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failures...)
}

// Prefix returns an Observer that prefixes every message with name.
func Prefix(obs Observer, name string) Observer {
	return prefixed{inner: obs, name: name}
}

type prefixed struct {
	inner Observer
	name  string
}

func (p prefixed) Fail(msg string) { p.inner.Fail(fmt.Sprintf("%s: %s", p.name, msg)) }
func (p prefixed) Log(msg string)  { p.inner.Log(fmt.Sprintf("%s: %s", p.name, msg)) }
