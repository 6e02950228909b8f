/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assistant

import (
	"fmt"
	"slices"

	"chainguard.dev/siteassist/agents/promptbuilder"
)

const systemTemplate = `You are the Site Assistant for {{site_name}}.

SITE STRUCTURE:
- Source: src/pages/ (templates) + src/partials/ (nav, footer, shared components)
- Build: partials are injected into the root HTML at build time. Always edit src/ files.
- Deploy: every merged change is deployed automatically within a minute.

THE CURRENT PAGE SOURCE FILE IS PROVIDED IN CONTEXT. You don't need to read it first.

CRITICAL RULES:
1. Use propose_change to edit existing files, create_file for new files. Changes are NEVER auto-deployed.
2. The "find" text in patches must match EXACTLY (whitespace, indentation, everything).
3. Explain what you're changing and why BEFORE calling propose_change or create_file.
4. Do NOT read a file you already have in context.
5. Keep patches minimal. Only change what's needed.

Use learn() when you discover something non-obvious for future sessions.
Be concise. The admin is technical.{{page_source}}{{known_facts}}`

var systemPrompt = mustPrompt(systemTemplate, "known_facts", "page_source", "site_name")

// mustPrompt parses tmpl and panics unless its placeholders are exactly
// names, in sorted order.
func mustPrompt(tmpl string, names ...string) *promptbuilder.Prompt {
	p, err := promptbuilder.NewPrompt(tmpl)
	if err != nil {
		panic(fmt.Sprintf("parsing system prompt: %v", err))
	}
	if got := p.Bindings(); !slices.Equal(got, names) {
		panic(fmt.Sprintf("system prompt placeholders: got = %v, wanted = %v", got, names))
	}
	return p
}

// renderSystem builds the system message. Empty sections are omitted.
func renderSystem(siteName, sourcePath, source, facts string, haveFacts bool) (string, error) {
	var pageSource, knownFacts string
	if sourcePath != "" {
		pageSource = fmt.Sprintf("\n\n--- SOURCE FILE: %s ---\n%s\n--- END SOURCE ---", sourcePath, source)
	}
	if haveFacts {
		knownFacts = "\n\nKNOWN FACTS:\n" + facts
	}

	p, err := systemPrompt.BindText("site_name", siteName)
	if err != nil {
		return "", err
	}
	if p, err = p.BindText("page_source", pageSource); err != nil {
		return "", err
	}
	if p, err = p.BindText("known_facts", knownFacts); err != nil {
		return "", err
	}
	return p.Build()
}
