/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chainguard.dev/siteassist/assistant"
	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/changeset/lifecycle"
	"chainguard.dev/siteassist/changeset/preview"
	"chainguard.dev/siteassist/identity"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turner runs conversation turns.
type Turner interface {
	Turn(ctx context.Context, req assistant.TurnRequest) (*assistant.TurnResult, error)
}

// Submitter turns proposals into change sets.
type Submitter interface {
	Submit(ctx context.Context, prop changeset.Proposal) (*changeset.ChangeSet, error)
}

// Resolver approves and rejects change sets.
type Resolver interface {
	Approve(ctx context.Context, number int) (*lifecycle.Result, error)
	Reject(ctx context.Context, number int) (*lifecycle.Result, error)
}

// PreviewResolver reports preview deployment state.
type PreviewResolver interface {
	Status(ctx context.Context, number int) (*preview.Status, error)
}

var (
	_ Turner          = (*assistant.Assistant)(nil)
	_ Resolver        = (*lifecycle.Manager)(nil)
	_ PreviewResolver = (*preview.Resolver)(nil)
)

// DefaultBodyLimit bounds request bodies.
const DefaultBodyLimit = "2M"

// ShutdownTimeout bounds graceful shutdown in Start.
const ShutdownTimeout = 10 * time.Second

// Server is the HTTP surface of the site assistant.
type Server struct {
	e *echo.Echo

	verifier  identity.Verifier
	assistant Turner
	pipeline  Submitter
	lifecycle Resolver
	preview   PreviewResolver
	bodyLimit string
}

// Option configures a Server.
type Option func(*Server) error

// WithAssistant enables the chat endpoint.
func WithAssistant(t Turner) Option {
	return func(s *Server) error {
		if t == nil {
			return errors.New("assistant cannot be nil")
		}
		s.assistant = t
		return nil
	}
}

// WithPipeline enables proposal submission.
func WithPipeline(p Submitter) Option {
	return func(s *Server) error {
		if p == nil {
			return errors.New("pipeline cannot be nil")
		}
		s.pipeline = p
		return nil
	}
}

// WithLifecycle enables approve and reject.
func WithLifecycle(r Resolver) Option {
	return func(s *Server) error {
		if r == nil {
			return errors.New("lifecycle manager cannot be nil")
		}
		s.lifecycle = r
		return nil
	}
}

// WithPreview enables preview status lookups.
func WithPreview(p PreviewResolver) Option {
	return func(s *Server) error {
		if p == nil {
			return errors.New("preview resolver cannot be nil")
		}
		s.preview = p
		return nil
	}
}

// WithBodyLimit overrides DefaultBodyLimit, e.g. "512K".
func WithBodyLimit(limit string) Option {
	return func(s *Server) error {
		if limit == "" {
			return errors.New("body limit cannot be empty")
		}
		s.bodyLimit = limit
		return nil
	}
}

// New creates a Server. Endpoints whose component was not configured
// answer 500.
func New(verifier identity.Verifier, opts ...Option) (*Server, error) {
	if verifier == nil {
		return nil, errors.New("verifier cannot be nil")
	}
	s := &Server{
		verifier:  verifier,
		bodyLimit: DefaultBodyLimit,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handleError

	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(s.bodyLimit))

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api", authenticate(s.verifier))
	g.POST("/chat", s.chat)
	g.POST("/proposals", s.createProposal)
	g.POST("/proposals/:number/approve", s.approveProposal)
	g.POST("/proposals/:number/reject", s.rejectProposal)
	g.GET("/proposals/:number/preview", s.previewProposal)
	g.POST("/apply", s.apply)

	s.e = e
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}
