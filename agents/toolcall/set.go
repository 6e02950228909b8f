/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/llm"
)

// ErrUnknownTool is returned when a call names a tool that is not in the set.
var ErrUnknownTool = errors.New("unknown tool")

// Set is an ordered collection of tools addressed by name.
// A nil Set has no tools.
type Set struct {
	order []string
	tools map[string]Tool
}

// NewSet groups tools. Names must be unique.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler", t.Def.Name)
		}
		if _, ok := s.tools[t.Def.Name]; ok {
			return nil, fmt.Errorf("duplicate tool %q", t.Def.Name)
		}
		s.order = append(s.order, t.Def.Name)
		s.tools[t.Def.Name] = t
	}
	return s, nil
}

// Len returns the number of tools.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Definitions returns the tool definitions in declaration order.
func (s *Set) Definitions() []llm.Tool {
	if s == nil {
		return nil
	}
	out := make([]llm.Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].Def)
	}
	return out
}

// Dispatch runs the tool named by call.
func (s *Set) Dispatch(ctx context.Context, call llm.ToolCall) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	t, ok := s.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	return t.Handler(ctx, call)
}
