/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// Store implements contentstore.Interface against a single GitHub repository.
type Store struct {
	client *github.Client
	owner  string
	repo   string
}

var _ contentstore.Interface = (*Store)(nil)

// New creates a Store for owner/repo.
func New(client *github.Client, owner, repo string) (*Store, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if owner == "" || repo == "" {
		return nil, errors.New("owner and repo are required")
	}
	return &Store{client: client, owner: owner, repo: repo}, nil
}

// GetRef implements contentstore.Interface.
func (s *Store) GetRef(ctx context.Context, branch string) (string, error) {
	ref, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "heads/"+branch)
	if err != nil {
		return "", classify("getting ref "+branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// CreateRef implements contentstore.Interface.
func (s *Store) CreateRef(ctx context.Context, branch, sha string) error {
	u := fmt.Sprintf("repos/%s/%s/git/refs", s.owner, s.repo)
	req, err := s.client.NewRequest(http.MethodPost, u, &createRefRequest{
		Ref: "refs/heads/" + branch,
		SHA: sha,
	})
	if err != nil {
		return fmt.Errorf("building create ref request: %w", err)
	}
	// GitHub answers 422 "Reference already exists" for a duplicate branch.
	if _, err := s.client.Do(ctx, req, nil); err != nil {
		return classify("creating ref "+branch, err, http.StatusUnprocessableEntity)
	}
	return nil
}

// DeleteRef implements contentstore.Interface.
func (s *Store) DeleteRef(ctx context.Context, branch string) error {
	if _, err := s.client.Git.DeleteRef(ctx, s.owner, s.repo, "heads/"+branch); err != nil {
		return classify("deleting ref "+branch, err)
	}
	return nil
}

// GetFile implements contentstore.Interface.
func (s *Store) GetFile(ctx context.Context, path, ref string) (*contentstore.File, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	fc, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return nil, classify("getting file "+path, err)
	}
	if fc == nil {
		return nil, &contentstore.Error{
			Op:   "getting file " + path,
			Kind: contentstore.ErrNotFound,
			Err:  errors.New("path is a directory"),
		}
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, &contentstore.Error{Op: "decoding file " + path, Kind: contentstore.ErrUpstream, Err: err}
	}
	return &contentstore.File{
		Path:    fc.GetPath(),
		Content: content,
		Hash:    fc.GetSHA(),
	}, nil
}

// PutFile implements contentstore.Interface.
func (s *Store) PutFile(ctx context.Context, req contentstore.PutFileRequest) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(req.Message),
		Content: []byte(req.Content),
		Branch:  github.Ptr(req.Branch),
	}

	var (
		res *github.RepositoryContentResponse
		err error
	)
	if req.ExpectedHash != "" {
		opts.SHA = github.Ptr(req.ExpectedHash)
		res, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, req.Path, opts)
	} else {
		res, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, req.Path, opts)
	}
	if err != nil {
		// 409 is a sha mismatch, 422 is a missing sha for a file that now exists.
		return "", classify("committing "+req.Path, err, http.StatusConflict, http.StatusUnprocessableEntity)
	}
	return res.Commit.GetSHA(), nil
}

// CreatePullRequest implements contentstore.Interface.
func (s *Store) CreatePullRequest(ctx context.Context, npr contentstore.NewPullRequest) (*contentstore.PullRequest, error) {
	pr, _, err := s.client.PullRequests.Create(ctx, s.owner, s.repo, &github.NewPullRequest{
		Title: github.Ptr(npr.Title),
		Head:  github.Ptr(npr.Head),
		Base:  github.Ptr(npr.Base),
		Body:  github.Ptr(npr.Body),
	})
	if err != nil {
		return nil, classify("creating pull request", err, http.StatusUnprocessableEntity)
	}
	return toPullRequest(pr), nil
}

// MergePullRequest implements contentstore.Interface.
func (s *Store) MergePullRequest(ctx context.Context, number int, method contentstore.MergeMethod, commitTitle string) error {
	_, _, err := s.client.PullRequests.Merge(ctx, s.owner, s.repo, number, "", &github.PullRequestOptions{
		CommitTitle: commitTitle,
		MergeMethod: string(method),
	})
	if err != nil {
		// 405 not mergeable (already merged, failing checks), 409 head moved.
		return classify(fmt.Sprintf("merging pull request #%d", number), err,
			http.StatusMethodNotAllowed, http.StatusConflict, http.StatusUnprocessableEntity)
	}
	return nil
}

// ClosePullRequest implements contentstore.Interface.
func (s *Store) ClosePullRequest(ctx context.Context, number int) error {
	_, _, err := s.client.PullRequests.Edit(ctx, s.owner, s.repo, number, &github.PullRequest{
		State: github.Ptr("closed"),
	})
	if err != nil {
		return classify(fmt.Sprintf("closing pull request #%d", number), err, http.StatusUnprocessableEntity)
	}
	return nil
}

// GetPullRequest implements contentstore.Interface.
func (s *Store) GetPullRequest(ctx context.Context, number int) (*contentstore.PullRequest, error) {
	pr, _, err := s.client.PullRequests.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, classify(fmt.Sprintf("getting pull request #%d", number), err)
	}
	return toPullRequest(pr), nil
}

// ListDeployments implements contentstore.Interface.
func (s *Store) ListDeployments(ctx context.Context, sha string) ([]contentstore.Deployment, error) {
	deployments, _, err := s.client.Repositories.ListDeployments(ctx, s.owner, s.repo, &github.DeploymentsListOptions{
		SHA:         sha,
		ListOptions: github.ListOptions{PerPage: 5},
	})
	if err != nil {
		return nil, classify("listing deployments for "+sha, err)
	}

	out := make([]contentstore.Deployment, 0, len(deployments))
	for _, d := range deployments {
		out = append(out, contentstore.Deployment{
			ID:          d.GetID(),
			SHA:         d.GetSHA(),
			Environment: d.GetEnvironment(),
			URL:         payloadURL(ctx, d.Payload),
		})
	}
	return out, nil
}

type deploymentStatus struct {
	State          string `json:"state"`
	EnvironmentURL string `json:"environment_url"`
	TargetURL      string `json:"target_url"`
	LogURL         string `json:"log_url"`
}

// ListDeploymentStatuses implements contentstore.Interface.
func (s *Store) ListDeploymentStatuses(ctx context.Context, deploymentID int64) ([]contentstore.DeploymentStatus, error) {
	u := fmt.Sprintf("repos/%s/%s/deployments/%d/statuses?per_page=10", s.owner, s.repo, deploymentID)
	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building deployment status request: %w", err)
	}

	var statuses []deploymentStatus
	if _, err := s.client.Do(ctx, req, &statuses); err != nil {
		return nil, classify(fmt.Sprintf("listing statuses for deployment %d", deploymentID), err)
	}

	out := make([]contentstore.DeploymentStatus, 0, len(statuses))
	for _, st := range statuses {
		target := st.TargetURL
		if target == "" {
			target = st.LogURL
		}
		out = append(out, contentstore.DeploymentStatus{
			State:          st.State,
			EnvironmentURL: st.EnvironmentURL,
			TargetURL:      target,
		})
	}
	return out, nil
}

func toPullRequest(pr *github.PullRequest) *contentstore.PullRequest {
	return &contentstore.PullRequest{
		Number:  pr.GetNumber(),
		URL:     pr.GetHTMLURL(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		State:   pr.GetState(),
		Merged:  pr.GetMerged(),
	}
}

// payloadURL extracts the "url" field deployment providers put in the payload.
func payloadURL(ctx context.Context, payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var p struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		// Some providers store a bare string payload.
		clog.FromContext(ctx).Debugf("Ignoring non-object deployment payload: %v", err)
		return ""
	}
	return p.URL
}

// classify maps a go-github error onto the contentstore taxonomy.
// 404 is always ErrNotFound; conflictCodes are the statuses that mean
// ErrConflict for this particular operation; everything else is ErrUpstream.
func classify(op string, err error, conflictCodes ...int) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		code := errResp.Response.StatusCode
		kind := contentstore.ErrUpstream
		switch {
		case code == http.StatusNotFound:
			kind = contentstore.ErrNotFound
		case slices.Contains(conflictCodes, code):
			kind = contentstore.ErrConflict
		}
		return &contentstore.Error{Op: op, Kind: kind, Status: code, Err: err}
	}
	return &contentstore.Error{Op: op, Kind: contentstore.ErrUpstream, Err: err}
}
