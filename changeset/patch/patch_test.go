/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		patches     []Patch
		wantContent string
		wantApplied int
		wantFailed  int
	}{{
		name:        "single replacement",
		original:    "<h1>$10/mo</h1>",
		patches:     []Patch{{Find: "$10", Replace: "$12"}},
		wantContent: "<h1>$12/mo</h1>",
		wantApplied: 1,
	}, {
		name:        "first occurrence only",
		original:    "a a a",
		patches:     []Patch{{Find: "a", Replace: "b"}},
		wantContent: "b a a",
		wantApplied: 1,
	}, {
		name:     "later patches see earlier edits",
		original: "foo",
		patches: []Patch{
			{Find: "foo", Replace: "bar"},
			{Find: "bar", Replace: "baz"},
		},
		wantContent: "baz",
		wantApplied: 2,
	}, {
		name:     "dependent patches out of order",
		original: "foo",
		patches: []Patch{
			{Find: "bar", Replace: "baz"},
			{Find: "foo", Replace: "bar"},
		},
		wantContent: "bar",
		wantApplied: 1,
		wantFailed:  1,
	}, {
		name:     "partial success",
		original: "hello world",
		patches: []Patch{
			{Find: "hello", Replace: "goodbye"},
			{Find: "missing", Replace: "x"},
		},
		wantContent: "goodbye world",
		wantApplied: 1,
		wantFailed:  1,
	}, {
		name:        "no whitespace normalization",
		original:    "a  b",
		patches:     []Patch{{Find: "a b", Replace: "c"}},
		wantContent: "a  b",
		wantFailed:  1,
	}, {
		name:        "case sensitive",
		original:    "Pricing",
		patches:     []Patch{{Find: "pricing", Replace: "Plans"}},
		wantContent: "Pricing",
		wantFailed:  1,
	}, {
		name:        "no regex",
		original:    "a.c abc",
		patches:     []Patch{{Find: "a.c", Replace: "X"}},
		wantContent: "X abc",
		wantApplied: 1,
	}, {
		name:        "empty find fails",
		original:    "abc",
		patches:     []Patch{{Find: "", Replace: "X"}},
		wantContent: "abc",
		wantFailed:  1,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.original, tt.patches)
			if got.Content != tt.wantContent {
				t.Errorf("content: got = %q, wanted = %q", got.Content, tt.wantContent)
			}
			if len(got.Applied) != tt.wantApplied {
				t.Errorf("applied: got = %d, wanted = %d", len(got.Applied), tt.wantApplied)
			}
			if len(got.Failed) != tt.wantFailed {
				t.Errorf("failed: got = %d, wanted = %d", len(got.Failed), tt.wantFailed)
			}
			if len(got.Applied)+len(got.Failed) != len(tt.patches) {
				t.Errorf("applied+failed: got = %d, wanted = %d", len(got.Applied)+len(got.Failed), len(tt.patches))
			}
		})
	}
}

func TestApplyAllFailedLeavesContent(t *testing.T) {
	const original = "unchanged"
	got := Apply(original, []Patch{{Find: "x", Replace: "y"}, {Find: "z", Replace: "w"}})
	if got.Content != original {
		t.Errorf("content: got = %q, wanted = %q", got.Content, original)
	}
	if len(got.Applied) != 0 {
		t.Errorf("applied: got = %d, wanted = 0", len(got.Applied))
	}
}

func TestFailureReasonPreview(t *testing.T) {
	find := strings.Repeat("x", 100)
	got := Apply("abc", []Patch{{Find: find, Replace: ""}})
	want := []string{`Could not find: "` + strings.Repeat("x", 60) + `"... — check whitespace`}
	if diff := cmp.Diff(want, got.Reasons()); diff != "" {
		t.Errorf("Reasons() (-want, +got): %s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		patches []Patch
		newFile bool
		wantErr bool
	}{
		{name: "ok", patches: []Patch{{Find: "a", Replace: "b"}}},
		{name: "none", patches: nil, wantErr: true},
		{name: "empty find on edit", patches: []Patch{{Find: "a"}, {Find: ""}}, wantErr: true},
		{name: "new file", patches: []Patch{{Replace: "body"}}, newFile: true},
		{name: "new file with two patches", patches: []Patch{{Replace: "a"}, {Replace: "b"}}, newFile: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.patches, tt.newFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(): got = %v, wanted error = %v", err, tt.wantErr)
			}
		})
	}

	if err := Validate([]Patch{{Find: ""}, {Find: "a"}}, false); !errors.Is(err, ErrEmptyFind) {
		t.Errorf("Validate(empty find): got = %v, wanted ErrEmptyFind", err)
	}
}

func TestIsNewFile(t *testing.T) {
	if !IsNewFile([]Patch{{Replace: "x"}}) {
		t.Error("IsNewFile(single empty find): got = false, wanted true")
	}
	if IsNewFile([]Patch{{Find: "a", Replace: "x"}}) {
		t.Error("IsNewFile(non-empty find): got = true, wanted false")
	}
}
