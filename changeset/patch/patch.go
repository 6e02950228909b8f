/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package patch applies find/replace edits to file content.
//
// Matching is literal and case-sensitive. Each patch replaces only the first
// occurrence of its Find text in the content as modified by the patches
// before it. There is no whitespace normalization and no pattern syntax.
package patch

import (
	"errors"
	"fmt"
	"strings"
)

// PreviewLength is how many characters of Find are quoted in failure reasons.
const PreviewLength = 60

// Patch is a single literal substitution.
type Patch struct {
	Find    string `json:"find" jsonschema:"required,description=Exact text to find in the file (must match character-for-character)"`
	Replace string `json:"replace" jsonschema:"required,description=Text to replace it with"`
}

// Failure records a patch that did not apply.
type Failure struct {
	Patch  Patch
	Reason string
}

// Result is the outcome of applying a patch set.
type Result struct {
	// Content is the original with every applied patch substituted.
	Content string
	Applied []Patch
	Failed  []Failure
}

// Reasons returns the failure reasons in patch order.
func (r Result) Reasons() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Reason)
	}
	return out
}

// ErrEmptyFind is returned by Validate for a Find that is empty outside of
// the new file case.
var ErrEmptyFind = errors.New("find text cannot be empty")

// Validate checks that patches form a usable set. An empty Find is only
// allowed as the single patch of a new file.
func Validate(patches []Patch, newFile bool) error {
	if len(patches) == 0 {
		return errors.New("at least one patch is required")
	}
	if newFile {
		if len(patches) != 1 {
			return fmt.Errorf("a new file takes exactly one patch, got %d", len(patches))
		}
		return nil
	}
	for i, p := range patches {
		if p.Find == "" {
			return fmt.Errorf("patch %d: %w", i, ErrEmptyFind)
		}
	}
	return nil
}

// IsNewFile reports whether patches describe a whole-file creation: a single
// patch with an empty Find.
func IsNewFile(patches []Patch) bool {
	return len(patches) == 1 && patches[0].Find == ""
}

// Apply substitutes each patch in order against original. A patch whose Find
// does not occur in the current content is recorded as failed and the content
// is left unchanged for it; later patches still run.
func Apply(original string, patches []Patch) Result {
	res := Result{Content: original}
	for _, p := range patches {
		if p.Find == "" {
			res.Failed = append(res.Failed, Failure{Patch: p, Reason: "empty find text"})
			continue
		}
		idx := strings.Index(res.Content, p.Find)
		if idx < 0 {
			res.Failed = append(res.Failed, Failure{
				Patch:  p,
				Reason: fmt.Sprintf("Could not find: \"%s...\" — check whitespace", Preview(p.Find)),
			})
			continue
		}
		res.Content = res.Content[:idx] + p.Replace + res.Content[idx+len(p.Find):]
		res.Applied = append(res.Applied, p)
	}
	return res
}

// Preview returns the first PreviewLength characters of s.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLength {
		return s
	}
	return string(r[:PreviewLength])
}
