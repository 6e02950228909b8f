/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/siteassist/agents/toolcall"
	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/changeset/diff"
	"chainguard.dev/siteassist/changeset/patch"
	"chainguard.dev/siteassist/contentstore"
)

type proposeChangeArgs struct {
	Path    string        `json:"path" jsonschema:"required,description=File path (e.g. src/pages/features.html)"`
	Patches []patch.Patch `json:"patches" jsonschema:"required"`
	Message string        `json:"message" jsonschema:"required,description=Short description of the change"`
}

func (a *proposeChangeArgs) Validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	if len(a.Patches) == 0 {
		return errors.New("at least one patch is required")
	}
	return nil
}

type createFileArgs struct {
	Path    string `json:"path" jsonschema:"required"`
	Content string `json:"content" jsonschema:"required"`
	Message string `json:"message" jsonschema:"required"`
}

func (a *createFileArgs) Validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

type readFileArgs struct {
	Path string `json:"path" jsonschema:"required"`
}

func (a *readFileArgs) Validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

type learnArgs struct {
	Topic   string `json:"topic" jsonschema:"required"`
	Content string `json:"content" jsonschema:"required"`
}

func (a *learnArgs) Validate() error {
	if a.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

// turn collects what the tools produce during one conversation turn.
// Tools run sequentially, so no locking is needed.
type turn struct {
	a         *Assistant
	actions   []string
	proposals []changeset.Proposal
}

func (t *turn) tools() (*toolcall.Set, error) {
	propose, err := toolcall.New("propose_change",
		"Propose a code change for the admin to review before deploying. The admin will see a diff and can approve or reject. Use this for ALL edits.",
		t.proposeChange)
	if err != nil {
		return nil, err
	}
	create, err := toolcall.New("create_file",
		"Create a new file in the repo (proposed to admin for approval).",
		t.createFile)
	if err != nil {
		return nil, err
	}
	read, err := toolcall.New("read_file",
		"Read a file from the repo. The current page source is already in context. Use this for other files.",
		t.readFile)
	if err != nil {
		return nil, err
	}
	learn, err := toolcall.New("learn",
		"Save something you learned for future sessions.",
		t.learn)
	if err != nil {
		return nil, err
	}
	return toolcall.NewSet(propose, create, read, learn)
}

// proposeChange previews the patches against the base branch and records
// a proposal with the patches that applied.
func (t *turn) proposeChange(ctx context.Context, args proposeChangeArgs) (string, error) {
	f, err := t.a.store.GetFile(ctx, args.Path, t.a.baseBranch)
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		return toolcall.Error("File not found: %s", args.Path), nil
	case err != nil:
		return "", err
	}

	res := patch.Apply(f.Content, args.Patches)
	if len(res.Applied) == 0 {
		return toolcall.Error("No patches matched. %s", strings.Join(res.Reasons(), "; ")), nil
	}

	prop := changeset.Proposal{
		Path:            args.Path,
		Patches:         res.Applied,
		Message:         args.Message,
		BaseContentHash: f.Hash,
		Diff:            diff.Lines(f.Content, res.Content, diff.DefaultContext),
	}
	if len(res.Failed) > 0 {
		prop.Unmatched = res.Reasons()
	}
	t.proposals = append(t.proposals, prop)
	t.actions = append(t.actions, "Proposed: "+args.Message)
	return fmt.Sprintf("Proposed %d change(s) to %s. Waiting for admin approval.", len(res.Applied), args.Path), nil
}

func (t *turn) createFile(ctx context.Context, args createFileArgs) (string, error) {
	_, err := t.a.store.GetFile(ctx, args.Path, t.a.baseBranch)
	switch {
	case err == nil:
		return toolcall.Error("File already exists: %s. Use propose_change to edit it.", args.Path), nil
	case !errors.Is(err, contentstore.ErrNotFound):
		return "", err
	}

	t.proposals = append(t.proposals, changeset.Proposal{
		Path:      args.Path,
		Patches:   []patch.Patch{{Find: "", Replace: args.Content}},
		Message:   args.Message,
		IsNewFile: true,
		Diff:      diff.Lines("", args.Content, diff.DefaultContext),
	})
	t.actions = append(t.actions, "Proposed new file: "+args.Path)
	return fmt.Sprintf("Proposed new file: %s. Waiting for admin approval.", args.Path), nil
}

func (t *turn) readFile(ctx context.Context, args readFileArgs) (string, error) {
	f, err := t.a.store.GetFile(ctx, args.Path, t.a.baseBranch)
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		return "File not found: " + args.Path, nil
	case err != nil:
		return "", err
	}
	t.actions = append(t.actions, "Read "+args.Path)
	return f.Content, nil
}

func (t *turn) learn(ctx context.Context, args learnArgs) (string, error) {
	if err := t.a.knowledge.Learn(ctx, args.Topic, args.Content); err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			return "Knowledge base not found.", nil
		}
		return "", err
	}
	t.actions = append(t.actions, "Learned: "+args.Topic)
	return fmt.Sprintf("✅ Learned \"%s\".", args.Topic), nil
}
