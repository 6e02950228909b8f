/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles system prompts from templates with
// {{name}} placeholders.
//
// Every placeholder must be bound exactly once before Build succeeds:
//
//	p, err := promptbuilder.NewPrompt(`You edit {{site_name}}.`)
//	p, err = p.BindText("site_name", cfg.SiteName)
//	text, err := p.Build()
//
// Bound values are substituted verbatim and are never scanned for further
// placeholders, so untrusted page content cannot inject bindings.
package promptbuilder
