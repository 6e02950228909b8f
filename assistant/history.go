/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"chainguard.dev/siteassist/agents/llm"
)

const truncationMarker = "\n... [truncated]"

// PathToSourceFile maps a site url path to the page template that renders it.
func PathToSourceFile(urlPath string) string {
	if urlPath == "" || urlPath == "/" {
		return "src/pages/index.html"
	}
	p := strings.TrimPrefix(urlPath, "/")
	p = strings.TrimSuffix(p, "/")
	if !strings.HasSuffix(p, ".html") {
		p += ".html"
	}
	return "src/pages/" + p
}

// pagePrefix renders the page metadata line put in front of the first user
// message.
func pagePrefix(pc *PageContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Page: %s — \"%s\"", pc.Path, pc.Title)
	if sel := compactJSON(pc.SelectedElement); sel != "" {
		sb.WriteString(" — 🎯 Selected: ")
		sb.WriteString(sel)
	}
	sb.WriteString("]\n\n")
	return sb.String()
}

func compactJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// truncate cuts content longer than limit characters and marks the cut.
func truncate(content string, limit int) string {
	r := []rune(content)
	if len(r) <= limit {
		return content
	}
	return string(r[:limit]) + truncationMarker
}

// prepareHistory converts the client's messages into model messages. The
// first message, when it is from the user and a page is known, carries the
// page prefix; every other message is truncated to limit. Only the last
// window messages are kept.
func prepareHistory(msgs []Message, pc *PageContext, limit, window int) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for i, m := range msgs {
		content := m.Content
		if i == 0 && m.Role == llm.RoleUser && pc != nil {
			content = pagePrefix(pc) + content
		} else {
			content = truncate(content, limit)
		}
		out = append(out, llm.Message{Role: m.Role, Content: content})
	}
	if len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}
