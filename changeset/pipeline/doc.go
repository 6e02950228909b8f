/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline submits proposals as reviewable change sets.
//
// Submitting a proposal performs, in order: resolve the base branch head,
// create a uniquely named branch from it, read the target file on that
// branch, apply the patches, commit the result guarded by the file hash
// that was read, and open a pull request back to the base branch.
//
// The steps are not transactional. A failure before the pull request exists
// removes the branch on a best-effort basis.
//
// Branch names have the form
//
//	<prefix>/<slug>-<base36 unix millis><random>
//
// where slug is derived from the proposal message with Slug.
package pipeline
