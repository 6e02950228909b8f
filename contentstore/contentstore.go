/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contentstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced file, ref or pull request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a stale write, an existing ref or an unmergeable pull request.
	ErrConflict = errors.New("conflict")
	// ErrUpstream indicates the host failed for reasons unrelated to the request.
	ErrUpstream = errors.New("upstream failure")
)

// Error carries the classification of a failed store operation along with
// the underlying cause. errors.Is matches both Kind and Err.
type Error struct {
	Op     string
	Kind   error
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// MergeMethod selects how a pull request is merged.
type MergeMethod string

const (
	MergeSquash MergeMethod = "squash"
	MergeCommit MergeMethod = "merge"
	MergeRebase MergeMethod = "rebase"
)

// File is the content of a file at some ref.
type File struct {
	Path    string
	Content string
	// Hash identifies this exact version of the file. It is passed back as
	// PutFileRequest.ExpectedHash to guard against stale writes.
	Hash string
}

// PutFileRequest describes a single-file commit.
type PutFileRequest struct {
	Path    string
	Content string
	Branch  string
	Message string
	// ExpectedHash is the hash of the version being replaced. Empty means the
	// file is expected not to exist yet.
	ExpectedHash string
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Head  string
	Base  string
	Title string
	Body  string
}

// PullRequest is the subset of pull request state the assistant relies on.
type PullRequest struct {
	Number  int
	URL     string
	HeadRef string
	HeadSHA string
	State   string
	Merged  bool
}

// Deployment is a deployment record attached to a commit.
type Deployment struct {
	ID          int64
	SHA         string
	Environment string
	// URL is the url recorded in the deployment payload, if any.
	URL string
}

// DeploymentStatus is one status update of a deployment.
type DeploymentStatus struct {
	State          string
	EnvironmentURL string
	TargetURL      string
}

// Interface is the set of operations the assistant performs against the host.
type Interface interface {
	// GetRef returns the commit sha at the head of the branch.
	GetRef(ctx context.Context, branch string) (string, error)
	// CreateRef creates branch pointing at sha. Fails with ErrConflict if the branch exists.
	CreateRef(ctx context.Context, branch, sha string) error
	// DeleteRef removes the branch.
	DeleteRef(ctx context.Context, branch string) error

	// GetFile reads path at ref.
	GetFile(ctx context.Context, path, ref string) (*File, error)
	// PutFile commits a new version of a file and returns the commit sha.
	PutFile(ctx context.Context, req PutFileRequest) (string, error)

	CreatePullRequest(ctx context.Context, pr NewPullRequest) (*PullRequest, error)
	// MergePullRequest fails with ErrConflict if the pull request cannot be merged.
	MergePullRequest(ctx context.Context, number int, method MergeMethod, commitTitle string) error
	ClosePullRequest(ctx context.Context, number int) error
	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)

	// ListDeployments returns deployments for sha, most recent first.
	ListDeployments(ctx context.Context, sha string) ([]Deployment, error)
	// ListDeploymentStatuses returns statuses of a deployment, most recent first.
	ListDeploymentStatuses(ctx context.Context, deploymentID int64) ([]DeploymentStatus, error)
}
