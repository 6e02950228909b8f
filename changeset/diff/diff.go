/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package diff renders line diffs of proposed file changes so an operator
// can review an edit before it is submitted.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op classifies a diff line.
type Op string

const (
	OpContext Op = "context"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
)

// Line is a single line of a hunk. OldLine and NewLine are 1-based and zero
// when the line does not exist on that side.
type Line struct {
	Op      Op     `json:"op"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

// Hunk is a run of changed lines surrounded by up to Context unchanged lines.
type Hunk struct {
	Lines []Line `json:"lines"`
}

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// Lines computes a line-level diff between before and after and groups the
// changes into hunks with context unchanged lines on either side. Identical
// inputs produce no hunks.
func Lines(before, after string, context int) []Hunk {
	if before == after {
		return nil
	}
	if context < 0 {
		context = 0
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	all := flatten(diffs)
	return group(all, context)
}

func flatten(diffs []diffmatchpatch.Diff) []Line {
	var out []Line
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		for _, l := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				out = append(out, Line{Op: OpContext, Text: l, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				out = append(out, Line{Op: OpRemove, Text: l, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				out = append(out, Line{Op: OpAdd, Text: l, NewLine: newLine})
				newLine++
			}
		}
	}
	return out
}

func group(lines []Line, context int) []Hunk {
	var hunks []Hunk
	start, end := -1, -1
	flush := func() {
		if start < 0 {
			return
		}
		lo := max(start-context, 0)
		hi := min(end+context+1, len(lines))
		hunks = append(hunks, Hunk{Lines: lines[lo:hi]})
		start, end = -1, -1
	}
	for i, l := range lines {
		if l.Op == OpContext {
			continue
		}
		// Changes separated by more than twice the context start a new hunk.
		if start >= 0 && i-end > 2*context+1 {
			flush()
		}
		if start < 0 {
			start = i
		}
		end = i
	}
	flush()
	return hunks
}

// Unified renders hunks in a compact unified style, one line per entry,
// prefixed with ' ', '+' or '-'. Hunks are separated by "@@".
func Unified(hunks []Hunk) string {
	var sb strings.Builder
	for _, h := range hunks {
		sb.WriteString("@@\n")
		for _, l := range h.Lines {
			switch l.Op {
			case OpAdd:
				sb.WriteByte('+')
			case OpRemove:
				sb.WriteByte('-')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
