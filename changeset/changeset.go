/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package changeset defines proposals and the change sets they become.
//
// A Proposal is an edit suggested during a conversation turn. It is turned
// into a ChangeSet (branch, commit and pull request) by the pipeline
// subpackage, resolved by the lifecycle subpackage and observed through the
// preview subpackage.
package changeset

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/changeset/diff"
	"chainguard.dev/siteassist/changeset/patch"
	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
)

var (
	// ErrInvalid marks a proposal or request that is malformed.
	ErrInvalid = errors.New("invalid request")
	// ErrNoPatchesMatched is returned when none of a proposal's patches
	// applied to an existing file. It is a validation failure.
	ErrNoPatchesMatched = fmt.Errorf("%w: no patches matched", ErrInvalid)
)

// Proposal is a pending edit to a single file.
type Proposal struct {
	Path    string        `json:"path"`
	Patches []patch.Patch `json:"patches"`
	Message string        `json:"message"`
	// IsNewFile means the file is created from the single patch's Replace.
	// Its camelCase key is what the browser widget already sends.
	IsNewFile bool `json:"isNewFile,omitempty"`

	// The fields below are informational and filled in when the proposal
	// is previewed during a turn.
	BaseContentHash string      `json:"base_hash,omitempty"`
	Unmatched       []string    `json:"unmatched,omitempty"`
	Diff            []diff.Hunk `json:"diff,omitempty"`
}

// NewFile reports whether p creates a file, either explicitly or because it
// is a single patch with an empty Find.
func (p Proposal) NewFile() bool {
	return p.IsNewFile || patch.IsNewFile(p.Patches)
}

// Validate checks the proposal is well formed.
func (p Proposal) Validate() error {
	if p.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalid)
	}
	if err := patch.Validate(p.Patches, p.NewFile()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ChangeSet is the materialized form of a submitted proposal.
type ChangeSet struct {
	Branch    string `json:"branch"`
	// HeadRef is the pull request head. It always names Branch.
	HeadRef   string `json:"head_ref"`
	BaseRef   string `json:"base_ref"`
	CommitSHA string `json:"commit_sha"`
	PRNumber  int    `json:"pr_number"`
	PRURL     string `json:"pr_url"`
	Applied   int    `json:"applied"`
	Failed    int    `json:"failed"`
	// FailedPreviews quotes the beginning of each patch that did not apply.
	FailedPreviews []string `json:"failed_previews,omitempty"`
}

// Compensate runs a best-effort cleanup action. Failures are logged and
// never returned, so they cannot mask the error that triggered the cleanup.
func Compensate(ctx context.Context, action string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		clog.FromContext(ctx).With("action", action).Warnf("Compensating action failed: %v", err)
		compensations.WithLabelValues(action, "failed").Inc()
		return
	}
	compensations.WithLabelValues(action, "ok").Inc()
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoPatchesMatched):
		return "no_match"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	case errors.Is(err, contentstore.ErrNotFound):
		return "not_found"
	case errors.Is(err, contentstore.ErrConflict):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "upstream"
	}
}
