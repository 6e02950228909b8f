/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/siteassist/agents/executor/retry"
	"chainguard.dev/siteassist/contentstore"
	"github.com/chainguard-dev/clog"
)

// DefaultPath is where the knowledge document lives in the repository.
const DefaultPath = "site-knowledge.json"

// Store reads and updates the knowledge document on a branch.
type Store struct {
	content contentstore.Interface
	path    string
	branch  string
	retry   retry.Config
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithPath sets the document path.
func WithPath(path string) Option {
	return func(s *Store) error {
		if path == "" {
			return errors.New("knowledge path cannot be empty")
		}
		s.path = path
		return nil
	}
}

// WithRetry configures how often a learn is retried after another writer
// updated the document concurrently.
func WithRetry(cfg retry.Config) Option {
	return func(s *Store) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		s.retry = cfg
		return nil
	}
}

// NewStore creates a Store for the document on branch.
func NewStore(content contentstore.Interface, branch string, opts ...Option) (*Store, error) {
	if content == nil {
		return nil, errors.New("content store cannot be nil")
	}
	if branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	s := &Store{
		content: content,
		path:    DefaultPath,
		branch:  branch,
		retry: retry.Config{
			MaxRetries:  2,
			BaseBackoff: 200 * time.Millisecond,
			MaxBackoff:  time.Second,
			MaxJitter:   100 * time.Millisecond,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return s, nil
}

// Path returns the document path.
func (s *Store) Path() string { return s.path }

// Load reads and parses the document. A missing document is reported as
// contentstore.ErrNotFound.
func (s *Store) Load(ctx context.Context) (*Base, error) {
	b, _, err := s.load(ctx)
	return b, err
}

func (s *Store) load(ctx context.Context) (*Base, string, error) {
	f, err := s.content.GetFile(ctx, s.path, s.branch)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", s.path, err)
	}
	b, err := Parse([]byte(f.Content))
	if err != nil {
		return nil, "", err
	}
	return b, f.Hash, nil
}

// Learn records content under topic, replacing any previous entry with the
// same topic, and commits the document directly to the store's branch.
// The document must already exist.
func (s *Store) Learn(ctx context.Context, topic, content string) error {
	entry := Entry{
		Topic:   topic,
		Learned: s.now().UTC().Format(time.DateOnly),
		Content: content,
	}
	isConflict := func(err error) bool { return errors.Is(err, contentstore.ErrConflict) }

	log := clog.FromContext(ctx).With("topic", topic)
	attempt := 0
	_, err := retry.Do(ctx, s.retry, "learn", isConflict, func(ctx context.Context) (string, error) {
		// Each attempt re-reads the document, so the upsert lands on the newest version.
		if attempt++; attempt > 1 {
			log.With("attempt", attempt).Info("Knowledge base changed concurrently, re-applying fact")
		}
		b, hash, err := s.load(ctx)
		if err != nil {
			return "", err
		}
		b.Upsert(entry)
		data, err := b.Encode()
		if err != nil {
			return "", fmt.Errorf("encoding knowledge base: %w", err)
		}
		return s.content.PutFile(ctx, contentstore.PutFileRequest{
			Path:         s.path,
			Content:      string(data),
			Branch:       s.branch,
			Message:      "knowledge: " + topic,
			ExpectedHash: hash,
		})
	})
	if err != nil {
		return err
	}
	log.Info("Learned fact")
	return nil
}
