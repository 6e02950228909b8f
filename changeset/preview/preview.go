/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package preview reports the deployment status of a change set's head commit.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
)

// State is the coarse preview deployment state.
type State string

const (
	StatePending State = "pending"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// DefaultURLTemplate is the preview url used when no deployment reports one.
const DefaultURLTemplate = "https://{project}-git-{branch}-{owner}.vercel.app"

// Status is the derived preview state of a pull request.
type Status struct {
	State State  `json:"status"`
	URL   string `json:"preview_url,omitempty"`
	PRURL string `json:"pr_url,omitempty"`
}

// Resolver derives preview status from deployments attached to a head commit.
type Resolver struct {
	store    contentstore.Interface
	owner    string
	project  string
	template string
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithURLTemplate overrides the fallback preview url template. The
// placeholders {project}, {branch} and {owner} are substituted.
func WithURLTemplate(tmpl string) Option {
	return func(r *Resolver) error {
		if !strings.Contains(tmpl, "{branch}") {
			return fmt.Errorf("preview url template %q must contain {branch}", tmpl)
		}
		r.template = tmpl
		return nil
	}
}

// WithProject overrides the deployment project name used in the fallback
// preview url. It defaults to the repository name.
func WithProject(project string) Option {
	return func(r *Resolver) error {
		if project == "" {
			return errors.New("preview project cannot be empty")
		}
		r.project = project
		return nil
	}
}

// New creates a Resolver for the owner/repo repository. The fallback preview
// host is named after repo unless WithProject says otherwise.
func New(store contentstore.Interface, owner, repo string, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if owner == "" || repo == "" {
		return nil, errors.New("owner and repo must be set")
	}
	r := &Resolver{
		store:    store,
		owner:    owner,
		project:  repo,
		template: DefaultURLTemplate,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return r, nil
}

// Status resolves the preview state of pull request number.
//
// A head commit the deployment API does not know about reads as pending with
// the fallback url. Any other lookup failure is returned.
func (r *Resolver) Status(ctx context.Context, number int) (*Status, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: pull request number must be positive", changeset.ErrInvalid)
	}
	pr, err := r.store.GetPullRequest(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("getting pull request #%d: %w", number, err)
	}
	log := clog.FromContext(ctx).With("pr", number)

	st := &Status{State: StatePending, PRURL: pr.URL}
	if pr.HeadSHA == "" {
		return st, nil
	}

	st.State, st.URL, err = r.fromDeployments(ctx, log, pr.HeadSHA)
	if err != nil {
		return nil, err
	}
	if st.URL == "" && pr.HeadRef != "" {
		st.URL = r.FallbackURL(pr.HeadRef)
	}
	return st, nil
}

func (r *Resolver) fromDeployments(ctx context.Context, log *clog.Logger, sha string) (State, string, error) {
	deployments, err := r.store.ListDeployments(ctx, sha)
	if errors.Is(err, contentstore.ErrNotFound) {
		log.Warnf("No deployments found for %s: %v", sha, err)
		return StatePending, "", nil
	} else if err != nil {
		return "", "", fmt.Errorf("listing deployments for %s: %w", sha, err)
	}
	if len(deployments) == 0 {
		return StatePending, "", nil
	}

	latest := deployments[0]
	statuses, err := r.store.ListDeploymentStatuses(ctx, latest.ID)
	if errors.Is(err, contentstore.ErrNotFound) {
		log.Warnf("No statuses found for deployment %d: %v", latest.ID, err)
		return StatePending, "", nil
	} else if err != nil {
		return "", "", fmt.Errorf("listing statuses for deployment %d: %w", latest.ID, err)
	}
	if len(statuses) == 0 {
		return StatePending, "", nil
	}

	switch s := statuses[0]; s.State {
	case "success":
		return StateReady, firstNonEmpty(s.EnvironmentURL, s.TargetURL, latest.URL), nil
	case "failure", "error":
		return StateFailed, "", nil
	default:
		return StatePending, "", nil
	}
}

// FallbackURL returns the conventional preview url for a branch.
func (r *Resolver) FallbackURL(branch string) string {
	return strings.NewReplacer(
		"{project}", r.project,
		"{branch}", strings.ReplaceAll(branch, "/", "-"),
		"{owner}", r.owner,
	).Replace(r.template)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
