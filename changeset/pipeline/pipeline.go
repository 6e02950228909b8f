/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/changeset/diff"
	"chainguard.dev/siteassist/changeset/patch"
	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

const (
	defaultMessage      = "Change via Site Assistant"
	defaultTitle        = "Site Assistant change"
	defaultSlugSource   = "change"
	maxSlugLength       = 20
	suffixEntropyLength = 4
)

// Pipeline turns proposals into change sets: a branch off the base branch,
// one commit with the patched file, and a pull request back to base.
type Pipeline struct {
	store        contentstore.Interface
	baseBranch   string
	branchPrefix string
	marker       string
	attribution  string

	now     func() time.Time
	entropy func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBaseBranch sets the branch proposals are based on and merged into.
func WithBaseBranch(branch string) Option {
	return func(p *Pipeline) error {
		if branch == "" {
			return errors.New("base branch cannot be empty")
		}
		p.baseBranch = branch
		return nil
	}
}

// WithBranchPrefix sets the namespace for proposal branches.
func WithBranchPrefix(prefix string) Option {
	return func(p *Pipeline) error {
		prefix = strings.Trim(prefix, "/")
		if prefix == "" {
			return errors.New("branch prefix cannot be empty")
		}
		p.branchPrefix = prefix
		return nil
	}
}

// WithTitleMarker sets the marker prepended to pull request titles.
func WithTitleMarker(marker string) Option {
	return func(p *Pipeline) error {
		p.marker = marker
		return nil
	}
}

// WithAttribution sets the authorship line at the end of pull request bodies.
func WithAttribution(attribution string) Option {
	return func(p *Pipeline) error {
		if attribution == "" {
			return errors.New("attribution cannot be empty")
		}
		p.attribution = attribution
		return nil
	}
}

// New creates a Pipeline writing through store.
func New(store contentstore.Interface, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	p := &Pipeline{
		store:        store,
		baseBranch:   "main",
		branchPrefix: "ac",
		marker:       "🧰",
		attribution:  "Created by Site Assistant",
		now:          time.Now,
		entropy: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixEntropyLength]
		},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return p, nil
}

// Submit materializes prop as a change set.
//
// Nothing is committed when no patch applies to an existing file: the new
// branch is removed again and the error wraps changeset.ErrNoPatchesMatched.
// A stale file hash surfaces as contentstore.ErrConflict and is not retried.
func (p *Pipeline) Submit(ctx context.Context, prop changeset.Proposal) (cs *changeset.ChangeSet, err error) {
	defer func() { changeset.Observe("submit", err) }()

	if err := prop.Validate(); err != nil {
		return nil, err
	}
	log := clog.FromContext(ctx).With("path", prop.Path)

	baseSHA, err := p.store.GetRef(ctx, p.baseBranch)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", p.baseBranch, err)
	}

	branch := p.branchName(prop.Message)
	if err := p.store.CreateRef(ctx, branch, baseSHA); err != nil {
		return nil, fmt.Errorf("creating branch %s: %w", branch, err)
	}
	log = log.With("branch", branch)
	log.Info("Created proposal branch")

	// Until a pull request references the branch, any failure leaves it orphaned.
	cleanup := func() {
		changeset.Compensate(ctx, "delete_branch", func(ctx context.Context) error {
			return p.store.DeleteRef(ctx, branch)
		})
	}

	var (
		original string
		content  string
		hash     string
		res      patch.Result
	)
	if prop.NewFile() {
		content = prop.Patches[0].Replace
		res = patch.Result{Content: content, Applied: prop.Patches[:1]}
	} else {
		f, err := p.store.GetFile(ctx, prop.Path, branch)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("reading %s: %w", prop.Path, err)
		}
		original, hash = f.Content, f.Hash
		res = patch.Apply(f.Content, prop.Patches)
		if len(res.Applied) == 0 {
			cleanup()
			return nil, fmt.Errorf("%w: %s", changeset.ErrNoPatchesMatched, strings.Join(res.Reasons(), "; "))
		}
		content = res.Content
	}
	changeset.ObservePatches(len(res.Applied), len(res.Failed))

	message := prop.Message
	if message == "" {
		message = defaultMessage
	}
	commit, err := p.store.PutFile(ctx, contentstore.PutFileRequest{
		Path:         prop.Path,
		Content:      content,
		Branch:       branch,
		Message:      message,
		ExpectedHash: hash,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("committing %s: %w", prop.Path, err)
	}

	previews := make([]string, 0, len(res.Failed))
	for _, f := range res.Failed {
		previews = append(previews, patch.Preview(f.Patch.Find))
	}

	pr, err := p.store.CreatePullRequest(ctx, contentstore.NewPullRequest{
		Head:  branch,
		Base:  p.baseBranch,
		Title: p.title(prop.Message),
		Body:  p.body(prop.Path, len(res.Applied), previews, diff.Unified(diff.Lines(original, content, diff.DefaultContext))),
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("opening pull request: %w", err)
	}
	log.With("pr", pr.Number).With("applied", len(res.Applied)).With("failed", len(res.Failed)).
		Info("Opened proposal pull request")

	return &changeset.ChangeSet{
		Branch:         branch,
		HeadRef:        branch,
		BaseRef:        baseSHA,
		CommitSHA:      commit,
		PRNumber:       pr.Number,
		PRURL:          pr.URL,
		Applied:        len(res.Applied),
		Failed:         len(res.Failed),
		FailedPreviews: previews,
	}, nil
}

func (p *Pipeline) branchName(message string) string {
	if message == "" {
		message = defaultSlugSource
	}
	slug := Slug(message)
	if slug == "" {
		slug = defaultSlugSource
	}
	suffix := strconv.FormatInt(p.now().UnixMilli(), 36) + p.entropy()
	return fmt.Sprintf("%s/%s-%s", p.branchPrefix, slug, suffix)
}

func (p *Pipeline) title(message string) string {
	if message == "" {
		message = defaultTitle
	}
	if p.marker == "" {
		return message
	}
	return p.marker + " " + message
}

func (p *Pipeline) body(path string, applied int, failed []string, unified string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Changed file:** `%s`\n", path)
	fmt.Fprintf(&sb, "**Applied:** %d patch(es)\n", applied)
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "**Failed:** %d patch(es)\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(&sb, "- `%s`\n", strings.ReplaceAll(f, "`", "'"))
		}
	}
	if unified != "" {
		fmt.Fprintf(&sb, "\n```diff\n%s```\n", unified)
	}
	fmt.Fprintf(&sb, "\n---\n_%s_", p.attribution)
	return sb.String()
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s, collapses every run of characters outside [a-z0-9]
// into a single dash, trims leading and trailing dashes and truncates the
// result to 20 characters.
func Slug(s string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}
