/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/siteassist/agents/executor/retry"
)

func testConfig() retry.Config {
	return retry.Config{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func always(err error) bool { return err != nil }

func TestDoSuccess(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	got, err := retry.Do(context.Background(), testConfig(), "op", always, func(context.Context) (string, error) {
		attempts.Add(1)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() = %v", err)
	}
	if got != "ok" {
		t.Errorf("result: got = %q, wanted = %q", got, "ok")
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts: got = %d, wanted = 1", n)
	}
}

func TestDoRecovers(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	got, err := retry.Do(context.Background(), testConfig(), "op", always, func(context.Context) (int, error) {
		if n := attempts.Add(1); n < 3 {
			return 0, errors.New("429")
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Do() = %v", err)
	}
	if got != 7 {
		t.Errorf("result: got = %d, wanted = 7", got)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("attempts: got = %d, wanted = 3", n)
	}
}

func TestDoExhausted(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("overloaded")
	var attempts atomic.Int32
	_, err := retry.Do(context.Background(), testConfig(), "op", always, func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Do(): got = %v, wanted wrapped %v", err, sentinel)
	}
	if n := attempts.Load(); n != 4 {
		t.Errorf("attempts: got = %d, wanted = 4", n)
	}
}

func TestDoNonRetryable(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("bad request")
	var attempts atomic.Int32
	_, err := retry.Do(context.Background(), testConfig(), "op", func(error) bool { return false }, func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, sentinel
	})
	if err != sentinel {
		t.Errorf("Do(): got = %v, wanted unwrapped %v", err, sentinel)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts: got = %d, wanted = 1", n)
	}
}

func TestDoDisabled(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("429")
	_, err := retry.Do(context.Background(), retry.Disabled(), "op", always, func(context.Context) (int, error) {
		return 0, sentinel
	})
	if err != sentinel {
		t.Errorf("Do(): got = %v, wanted unwrapped %v", err, sentinel)
	}
}

func TestDoContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig()
	cfg.BaseBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	_, err := retry.Do(ctx, cfg, "op", always, func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("503")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do(): got = %v, wanted context.Canceled", err)
	}
}

func TestBackoff(t *testing.T) {
	cfg := retry.Config{BaseBackoff: time.Second, MaxBackoff: 5 * time.Second}
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second} {
		if got := retry.Backoff(cfg, attempt); got != want {
			t.Errorf("Backoff(%d): got = %v, wanted = %v", attempt, got, want)
		}
	}
	if got := retry.Backoff(cfg, 100); got != 5*time.Second {
		t.Errorf("Backoff(100): got = %v, wanted = %v", got, 5*time.Second)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := retry.DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if err := (retry.Config{MaxRetries: -1}).Validate(); err == nil {
		t.Error("Validate(negative retries): got = nil, wanted error")
	}
}
