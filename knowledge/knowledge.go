/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package knowledge persists facts the assistant learns about a site as a
// JSON document in the site's repository.
package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is a single learned fact, keyed by Topic.
type Entry struct {
	Topic   string `json:"topic"`
	Learned string `json:"learned"`
	Content string `json:"content"`
}

// Base is the knowledge document. Top-level fields other than entries are
// preserved across a load and save.
type Base struct {
	Entries []Entry

	extra map[string]json.RawMessage
}

// Parse decodes a knowledge document.
func Parse(data []byte) (*Base, error) {
	var b Base
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing knowledge base: %w", err)
	}
	return &b, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Entries = nil
	if entries, ok := raw["entries"]; ok {
		if err := json.Unmarshal(entries, &b.Entries); err != nil {
			return fmt.Errorf("entries: %w", err)
		}
		delete(raw, "entries")
	}
	b.extra = raw
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b Base) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.extra)+1)
	for k, v := range b.extra {
		out[k] = v
	}
	entries := b.Entries
	if entries == nil {
		entries = []Entry{}
	}
	out["entries"] = entries
	return json.Marshal(out)
}

// Encode renders the document with two-space indentation and a trailing newline.
func (b *Base) Encode() ([]byte, error) {
	compact, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Upsert replaces the entry with the same topic, or appends e.
func (b *Base) Upsert(e Entry) {
	for i := range b.Entries {
		if b.Entries[i].Topic == e.Topic {
			b.Entries[i] = e
			return
		}
	}
	b.Entries = append(b.Entries, e)
}

// Facts renders the entries as a bullet list, one "- [topic] content" line
// per entry.
func (b *Base) Facts() string {
	lines := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		lines = append(lines, fmt.Sprintf("- [%s] %s", e.Topic, e.Content))
	}
	return strings.Join(lines, "\n")
}
