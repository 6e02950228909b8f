/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package contentstoretest provides an in-memory contentstore.Interface for tests.
package contentstoretest

import (
	"context"
	"crypto/sha1" //nolint:gosec // mirrors git blob ids, not used for security
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"sync"

	"chainguard.dev/siteassist/contentstore"
)

// Store is a goroutine-safe in-memory repository with branches, pull
// requests and deployments. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	branches map[string]*branch
	prs      map[int]*pullRequest
	nextPR   int
	commits  int

	deployments map[string][]contentstore.Deployment
	statuses    map[int64][]contentstore.DeploymentStatus

	calls map[string]int
	fail  map[string]error
}

type branch struct {
	sha   string
	files map[string]string
}

type pullRequest struct {
	contentstore.PullRequest
	base string
}

var _ contentstore.Interface = (*Store)(nil)

// New creates a Store with a single base branch holding files.
func New(base string, files map[string]string) *Store {
	s := &Store{
		branches:    map[string]*branch{},
		prs:         map[int]*pullRequest{},
		nextPR:      1,
		deployments: map[string][]contentstore.Deployment{},
		statuses:    map[int64][]contentstore.DeploymentStatus{},
		calls:       map[string]int{},
		fail:        map[string]error{},
	}
	s.branches[base] = &branch{sha: s.nextCommit(), files: maps.Clone(files)}
	if s.branches[base].files == nil {
		s.branches[base].files = map[string]string{}
	}
	return s
}

// Hash returns the content hash the store reports for content.
func Hash(content string) string {
	sum := sha1.Sum([]byte(content)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// SetNextPRNumber sets the number the next created pull request receives.
func (s *Store) SetNextPRNumber(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPR = n
}

// FailOn makes every subsequent call to the named method return err.
// Passing a nil err clears the injection.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// Calls returns how often the named method has been invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// HasBranch reports whether the branch exists.
func (s *Store) HasBranch(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.branches[name]
	return ok
}

// Branches returns the sorted branch names.
func (s *Store) Branches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.branches))
}

// File returns the content of path on branch.
func (s *Store) File(branchName, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[branchName]
	if !ok {
		return "", false
	}
	c, ok := b.files[path]
	return c, ok
}

// SetFile writes path on branch directly, as if someone else had pushed.
func (s *Store) SetFile(branchName, path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.branches[branchName]
	b.files[path] = content
	b.sha = s.nextCommit()
}

// PullRequest returns a copy of the pull request state.
func (s *Store) PullRequest(number int) (contentstore.PullRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.prs[number]
	if !ok {
		return contentstore.PullRequest{}, false
	}
	return pr.PullRequest, true
}

// AddDeployment records a deployment, newest first, with its statuses
// (also newest first).
func (s *Store) AddDeployment(d contentstore.Deployment, statuses ...contentstore.DeploymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[d.SHA] = append([]contentstore.Deployment{d}, s.deployments[d.SHA]...)
	s.statuses[d.ID] = statuses
}

func (s *Store) nextCommit() string {
	s.commits++
	return fmt.Sprintf("%040x", s.commits)
}

// enter records the call and returns any injected failure. Callers hold mu.
func (s *Store) enter(method string) error {
	s.calls[method]++
	return s.fail[method]
}

func notFound(op string) error {
	return &contentstore.Error{Op: op, Kind: contentstore.ErrNotFound, Status: 404, Err: fmt.Errorf("%s does not exist", op)}
}

func conflict(op, msg string) error {
	return &contentstore.Error{Op: op, Kind: contentstore.ErrConflict, Status: 409, Err: fmt.Errorf("%s", msg)}
}

// GetRef implements contentstore.Interface.
func (s *Store) GetRef(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetRef"); err != nil {
		return "", err
	}
	b, ok := s.branches[name]
	if !ok {
		return "", notFound("ref " + name)
	}
	return b.sha, nil
}

// CreateRef implements contentstore.Interface.
func (s *Store) CreateRef(_ context.Context, name, sha string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateRef"); err != nil {
		return err
	}
	if _, ok := s.branches[name]; ok {
		return conflict("ref "+name, "reference already exists")
	}
	for _, b := range s.branches {
		if b.sha == sha {
			s.branches[name] = &branch{sha: sha, files: maps.Clone(b.files)}
			return nil
		}
	}
	return &contentstore.Error{Op: "ref " + name, Kind: contentstore.ErrUpstream, Status: 422, Err: fmt.Errorf("object %s does not exist", sha)}
}

// DeleteRef implements contentstore.Interface.
func (s *Store) DeleteRef(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteRef"); err != nil {
		return err
	}
	if _, ok := s.branches[name]; !ok {
		return notFound("ref " + name)
	}
	delete(s.branches, name)
	return nil
}

// GetFile implements contentstore.Interface.
func (s *Store) GetFile(_ context.Context, path, ref string) (*contentstore.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetFile"); err != nil {
		return nil, err
	}
	b, ok := s.branches[ref]
	if !ok {
		return nil, notFound("ref " + ref)
	}
	c, ok := b.files[path]
	if !ok {
		return nil, notFound("file " + path)
	}
	return &contentstore.File{Path: path, Content: c, Hash: Hash(c)}, nil
}

// PutFile implements contentstore.Interface.
func (s *Store) PutFile(_ context.Context, req contentstore.PutFileRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("PutFile"); err != nil {
		return "", err
	}
	b, ok := s.branches[req.Branch]
	if !ok {
		return "", notFound("ref " + req.Branch)
	}
	current, exists := b.files[req.Path]
	switch {
	case req.ExpectedHash == "" && exists:
		return "", conflict("file "+req.Path, "sha wasn't supplied for an existing file")
	case req.ExpectedHash != "" && !exists:
		return "", notFound("file " + req.Path)
	case req.ExpectedHash != "" && Hash(current) != req.ExpectedHash:
		return "", conflict("file "+req.Path, fmt.Sprintf("is at %s but expected %s", Hash(current), req.ExpectedHash))
	}
	b.files[req.Path] = req.Content
	b.sha = s.nextCommit()
	return b.sha, nil
}

// CreatePullRequest implements contentstore.Interface.
func (s *Store) CreatePullRequest(_ context.Context, npr contentstore.NewPullRequest) (*contentstore.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreatePullRequest"); err != nil {
		return nil, err
	}
	head, ok := s.branches[npr.Head]
	if !ok {
		return nil, conflict("pull request", "head does not exist")
	}
	if _, ok := s.branches[npr.Base]; !ok {
		return nil, conflict("pull request", "base does not exist")
	}
	n := s.nextPR
	s.nextPR++
	pr := &pullRequest{
		PullRequest: contentstore.PullRequest{
			Number:  n,
			URL:     fmt.Sprintf("https://github.test/pull/%d", n),
			HeadRef: npr.Head,
			HeadSHA: head.sha,
			State:   "open",
		},
		base: npr.Base,
	}
	s.prs[n] = pr
	out := pr.PullRequest
	return &out, nil
}

// MergePullRequest implements contentstore.Interface. The head branch
// replaces the base branch contents wholesale.
func (s *Store) MergePullRequest(_ context.Context, number int, _ contentstore.MergeMethod, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MergePullRequest"); err != nil {
		return err
	}
	pr, ok := s.prs[number]
	if !ok {
		return notFound(fmt.Sprintf("pull request #%d", number))
	}
	if pr.State != "open" {
		return &contentstore.Error{Op: fmt.Sprintf("pull request #%d", number), Kind: contentstore.ErrConflict, Status: 405, Err: fmt.Errorf("pull request is not mergeable")}
	}
	head, ok := s.branches[pr.HeadRef]
	if !ok {
		return conflict(fmt.Sprintf("pull request #%d", number), "head branch is gone")
	}
	base := s.branches[pr.base]
	base.files = maps.Clone(head.files)
	base.sha = s.nextCommit()
	pr.State = "closed"
	pr.Merged = true
	return nil
}

// ClosePullRequest implements contentstore.Interface.
func (s *Store) ClosePullRequest(_ context.Context, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClosePullRequest"); err != nil {
		return err
	}
	pr, ok := s.prs[number]
	if !ok {
		return notFound(fmt.Sprintf("pull request #%d", number))
	}
	pr.State = "closed"
	return nil
}

// GetPullRequest implements contentstore.Interface.
func (s *Store) GetPullRequest(_ context.Context, number int) (*contentstore.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetPullRequest"); err != nil {
		return nil, err
	}
	pr, ok := s.prs[number]
	if !ok {
		return nil, notFound(fmt.Sprintf("pull request #%d", number))
	}
	out := pr.PullRequest
	return &out, nil
}

// ListDeployments implements contentstore.Interface.
func (s *Store) ListDeployments(_ context.Context, sha string) ([]contentstore.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListDeployments"); err != nil {
		return nil, err
	}
	return slices.Clone(s.deployments[sha]), nil
}

// ListDeploymentStatuses implements contentstore.Interface.
func (s *Store) ListDeploymentStatuses(_ context.Context, id int64) ([]contentstore.DeploymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListDeploymentStatuses"); err != nil {
		return nil, err
	}
	return slices.Clone(s.statuses[id]), nil
}
