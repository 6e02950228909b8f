/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package lifecycle resolves open change sets by merging or closing them.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
)

// Result describes a resolved change set.
type Result struct {
	PRNumber int    `json:"pr_number"`
	Merged   bool   `json:"merged,omitempty"`
	Closed   bool   `json:"closed,omitempty"`
	Message  string `json:"message"`
}

// Manager approves and rejects change sets.
type Manager struct {
	store  contentstore.Interface
	marker string
}

// Option configures a Manager.
type Option func(*Manager) error

// WithTitleMarker sets the marker prepended to merge commit titles.
func WithTitleMarker(marker string) Option {
	return func(m *Manager) error {
		m.marker = marker
		return nil
	}
}

// New creates a Manager.
func New(store contentstore.Interface, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	m := &Manager{store: store, marker: "🧰"}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return m, nil
}

// Approve squash-merges the pull request and deletes its head branch.
// Approving an already merged or closed pull request fails with
// contentstore.ErrConflict.
func (m *Manager) Approve(ctx context.Context, number int) (res *Result, err error) {
	defer func() { changeset.Observe("approve", err) }()
	if number <= 0 {
		return nil, fmt.Errorf("%w: pull request number must be positive", changeset.ErrInvalid)
	}

	title := fmt.Sprintf("Applied change via Site Assistant (PR #%d)", number)
	if m.marker != "" {
		title = m.marker + " " + title
	}
	if err := m.store.MergePullRequest(ctx, number, contentstore.MergeSquash, title); err != nil {
		return nil, fmt.Errorf("merging pull request #%d: %w", number, err)
	}
	clog.FromContext(ctx).With("pr", number).Info("Merged change set")

	m.deleteHead(ctx, number)
	return &Result{
		PRNumber: number,
		Merged:   true,
		Message:  fmt.Sprintf("✅ PR #%d merged. Production deploying now (~30s).", number),
	}, nil
}

// Reject closes the pull request without merging and deletes its head branch.
func (m *Manager) Reject(ctx context.Context, number int) (res *Result, err error) {
	defer func() { changeset.Observe("reject", err) }()
	if number <= 0 {
		return nil, fmt.Errorf("%w: pull request number must be positive", changeset.ErrInvalid)
	}

	if err := m.store.ClosePullRequest(ctx, number); err != nil {
		return nil, fmt.Errorf("closing pull request #%d: %w", number, err)
	}
	clog.FromContext(ctx).With("pr", number).Info("Closed change set")

	m.deleteHead(ctx, number)
	return &Result{
		PRNumber: number,
		Closed:   true,
		Message:  fmt.Sprintf("PR #%d closed and branch deleted.", number),
	}, nil
}

// deleteHead removes the head branch of a resolved pull request. The
// resolution already happened, so nothing here is reported to the caller.
func (m *Manager) deleteHead(ctx context.Context, number int) {
	changeset.Compensate(ctx, "delete_head_branch", func(ctx context.Context) error {
		pr, err := m.store.GetPullRequest(ctx, number)
		if err != nil {
			return fmt.Errorf("looking up head of #%d: %w", number, err)
		}
		if pr.HeadRef == "" {
			return nil
		}
		return m.store.DeleteRef(ctx, pr.HeadRef)
	})
}
