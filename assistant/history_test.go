/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assistant

import (
	"encoding/json"
	"strings"
	"testing"

	"chainguard.dev/siteassist/agents/llm"
	"github.com/google/go-cmp/cmp"
)

func TestPathToSourceFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "src/pages/index.html"},
		{"/", "src/pages/index.html"},
		{"/pricing", "src/pages/pricing.html"},
		{"/pricing/", "src/pages/pricing.html"},
		{"/docs/setup", "src/pages/docs/setup.html"},
		{"/about.html", "src/pages/about.html"},
		{"features", "src/pages/features.html"},
	}
	for _, tt := range tests {
		if got := PathToSourceFile(tt.path); got != tt.want {
			t.Errorf("PathToSourceFile(%q): got = %q, wanted = %q", tt.path, got, tt.want)
		}
	}
}

func TestPagePrefix(t *testing.T) {
	tests := []struct {
		name string
		pc   PageContext
		want string
	}{{
		name: "no selection",
		pc:   PageContext{Path: "/pricing", Title: "Pricing"},
		want: "[Page: /pricing — \"Pricing\"]\n\n",
	}, {
		name: "null selection",
		pc:   PageContext{Path: "/", Title: "Home", SelectedElement: json.RawMessage("null")},
		want: "[Page: / — \"Home\"]\n\n",
	}, {
		name: "selection is compacted",
		pc:   PageContext{Path: "/", Title: "Home", SelectedElement: json.RawMessage(`{ "tag": "h1",  "text": "Hi" }`)},
		want: "[Page: / — \"Home\" — 🎯 Selected: {\"tag\":\"h1\",\"text\":\"Hi\"}]\n\n",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pagePrefix(&tt.pc); got != tt.want {
				t.Errorf("pagePrefix(): got = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestPrepareHistory(t *testing.T) {
	long := strings.Repeat("x", 2500)
	pc := &PageContext{Path: "/pricing", Title: "Pricing"}

	t.Run("prefix and truncation", func(t *testing.T) {
		got := prepareHistory([]Message{
			{Role: llm.RoleUser, Content: long},
			{Role: llm.RoleAssistant, Content: long},
			{Role: llm.RoleUser, Content: "short"},
		}, pc, 2000, 6)

		want := []llm.Message{
			{Role: llm.RoleUser, Content: "[Page: /pricing — \"Pricing\"]\n\n" + long},
			{Role: llm.RoleAssistant, Content: strings.Repeat("x", 2000) + "\n... [truncated]"},
			{Role: llm.RoleUser, Content: "short"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("prepareHistory() (-want, +got): %s", diff)
		}
	})

	t.Run("no page context truncates the first message", func(t *testing.T) {
		got := prepareHistory([]Message{{Role: llm.RoleUser, Content: long}}, nil, 2000, 6)
		if !strings.HasSuffix(got[0].Content, "\n... [truncated]") || strings.HasPrefix(got[0].Content, "[Page:") {
			t.Errorf("first message: got = %q...", got[0].Content[:20])
		}
	})

	t.Run("assistant first message gets no prefix", func(t *testing.T) {
		got := prepareHistory([]Message{{Role: llm.RoleAssistant, Content: "hello"}}, pc, 2000, 6)
		if got[0].Content != "hello" {
			t.Errorf("first message: got = %q, wanted = %q", got[0].Content, "hello")
		}
	})

	t.Run("window keeps the last messages in order", func(t *testing.T) {
		var msgs []Message
		for _, c := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
			msgs = append(msgs, Message{Role: llm.RoleUser, Content: c})
		}
		got := prepareHistory(msgs, pc, 2000, 6)
		var contents []string
		for _, m := range got {
			contents = append(contents, m.Content)
		}
		if diff := cmp.Diff([]string{"3", "4", "5", "6", "7", "8"}, contents); diff != "" {
			t.Errorf("window (-want, +got): %s", diff)
		}
	})

	t.Run("multibyte truncation keeps whole characters", func(t *testing.T) {
		got := truncate(strings.Repeat("é", 5), 3)
		if got != "ééé\n... [truncated]" {
			t.Errorf("truncate(): got = %q", got)
		}
	})
}
