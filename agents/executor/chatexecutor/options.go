/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package chatexecutor

import (
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/executor/retry"
	"chainguard.dev/siteassist/agents/metrics"
)

// Option is a functional option for configuring the executor
type Option func(*Executor) error

// WithMaxIterations sets how many model round trips a turn may take.
func WithMaxIterations(n int) Option {
	return func(e *Executor) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		e.maxIterations = n
		return nil
	}
}

// WithMaxTokens sets the maximum tokens for responses when the request
// does not carry its own limit.
func WithMaxTokens(tokens int64) Option {
	return func(e *Executor) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		e.maxTokens = tokens
		return nil
	}
}

// WithRetryConfig sets the retry configuration for transient model errors
// such as 429 rate limits and 529 overloads.
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Executor) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.retry = cfg
		return nil
	}
}

// WithMetrics records token, tool call and turn metrics.
func WithMetrics(m *metrics.GenAI) Option {
	return func(e *Executor) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		e.metrics = m
		return nil
	}
}
