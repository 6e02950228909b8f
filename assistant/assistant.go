/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainguard.dev/siteassist/agents/executor/chatexecutor"
	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/toolcall"
	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/contentstore"
	"chainguard.dev/siteassist/knowledge"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultHistoryWindow is how many trailing messages are sent to the model.
	DefaultHistoryWindow = 6
	// DefaultMessageCharLimit bounds the length of each history message.
	DefaultMessageCharLimit = 2000
	// DefaultBaseBranch is the branch tools read from.
	DefaultBaseBranch = "main"
)

// Message is a conversation entry as the client sends it.
type Message struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// PageContext describes the page the operator is looking at.
type PageContext struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	// SelectedElement is an opaque description of the element the operator
	// picked on the page, if any.
	SelectedElement json.RawMessage `json:"selectedElement,omitempty"`
}

// TurnRequest is the input of a turn.
type TurnRequest struct {
	Messages    []Message    `json:"messages"`
	PageContext *PageContext `json:"pageContext,omitempty"`
	// Model overrides the configured default model.
	Model string `json:"model,omitempty"`
}

// TurnResult is the outcome of a turn.
type TurnResult struct {
	Reply      string               `json:"reply"`
	Model      string               `json:"model"`
	Actions    []string             `json:"actions"`
	Proposals  []changeset.Proposal `json:"proposals,omitempty"`
	Truncated  bool                 `json:"truncated,omitempty"`
	Iterations int                  `json:"iterations"`
}

// Assistant runs turns against a model. It is safe for concurrent use.
type Assistant struct {
	model         llm.Model
	exec          *chatexecutor.Executor
	store         contentstore.Interface
	knowledge     *knowledge.Store
	baseBranch    string
	siteName      string
	defaultModel  string
	historyWindow int
	charLimit     int
}

// Option configures an Assistant.
type Option func(*Assistant) error

// WithContentStore enables the site tools, reading files from baseBranch.
// Without a content store the model answers without tools.
func WithContentStore(store contentstore.Interface, baseBranch string) Option {
	return func(a *Assistant) error {
		if store == nil {
			return errors.New("content store cannot be nil")
		}
		if baseBranch == "" {
			return errors.New("base branch cannot be empty")
		}
		a.store = store
		a.baseBranch = baseBranch
		return nil
	}
}

// WithKnowledge sets the knowledge store. By default the knowledge document
// is read from and written to the base branch of the content store.
func WithKnowledge(ks *knowledge.Store) Option {
	return func(a *Assistant) error {
		if ks == nil {
			return errors.New("knowledge store cannot be nil")
		}
		a.knowledge = ks
		return nil
	}
}

// WithExecutor sets the conversation loop.
func WithExecutor(exec *chatexecutor.Executor) Option {
	return func(a *Assistant) error {
		if exec == nil {
			return errors.New("executor cannot be nil")
		}
		a.exec = exec
		return nil
	}
}

// WithSiteName sets the site named in the system prompt.
func WithSiteName(name string) Option {
	return func(a *Assistant) error {
		if name == "" {
			return errors.New("site name cannot be empty")
		}
		a.siteName = name
		return nil
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(a *Assistant) error {
		if model == "" {
			return errors.New("default model cannot be empty")
		}
		a.defaultModel = model
		return nil
	}
}

// WithHistoryWindow sets how many trailing messages are kept.
func WithHistoryWindow(n int) Option {
	return func(a *Assistant) error {
		if n <= 0 {
			return fmt.Errorf("history window must be positive, got %d", n)
		}
		a.historyWindow = n
		return nil
	}
}

// WithMessageCharLimit sets the per message character limit.
func WithMessageCharLimit(n int) Option {
	return func(a *Assistant) error {
		if n <= 0 {
			return fmt.Errorf("message char limit must be positive, got %d", n)
		}
		a.charLimit = n
		return nil
	}
}

// New creates an Assistant for model.
func New(model llm.Model, opts ...Option) (*Assistant, error) {
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	a := &Assistant{
		model:         model,
		siteName:      "the website",
		historyWindow: DefaultHistoryWindow,
		charLimit:     DefaultMessageCharLimit,
		baseBranch:    DefaultBaseBranch,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if a.defaultModel == "" {
		return nil, errors.New("a default model is required")
	}
	if a.exec == nil {
		exec, err := chatexecutor.New()
		if err != nil {
			return nil, err
		}
		a.exec = exec
	}
	if a.store != nil && a.knowledge == nil {
		ks, err := knowledge.NewStore(a.store, a.baseBranch)
		if err != nil {
			return nil, err
		}
		a.knowledge = ks
	}
	return a, nil
}

// Validate checks the request can start a turn.
func (r TurnRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages required", changeset.ErrInvalid)
	}
	for i, m := range r.Messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return fmt.Errorf("%w: message %d has unsupported role %q", changeset.ErrInvalid, i, m.Role)
		}
	}
	return nil
}

// Turn runs one conversation turn.
func (a *Assistant) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	log := clog.FromContext(ctx).With("model", model)

	system, err := a.system(ctx, req.PageContext)
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}

	t := &turn{a: a}
	tools, err := a.toolsFor(t)
	if err != nil {
		return nil, fmt.Errorf("declaring tools: %w", err)
	}

	res, err := a.exec.Execute(ctx, a.model, llm.Request{
		Model:    model,
		System:   system,
		Messages: prepareHistory(req.Messages, req.PageContext, a.charLimit, a.historyWindow),
	}, tools)
	if err != nil {
		return nil, err
	}

	log.With("iterations", res.Iterations).
		With("tools", tools.Len()).
		With("proposals", len(t.proposals)).
		Info("Turn finished")

	actions := t.actions
	if actions == nil {
		actions = []string{}
	}
	return &TurnResult{
		Reply:      res.Reply,
		Model:      model,
		Actions:    actions,
		Proposals:  t.proposals,
		Truncated:  res.Truncated,
		Iterations: res.Iterations,
	}, nil
}

// system reads the page source and the knowledge base concurrently and
// renders the system prompt. Either read failing only drops its section.
func (a *Assistant) system(ctx context.Context, pc *PageContext) (string, error) {
	if a.store == nil {
		return renderSystem(a.siteName, "", "", "", false)
	}

	var (
		sourcePath string
		source     *contentstore.File
		kb         *knowledge.Base
	)
	if pc != nil && pc.Path != "" {
		sourcePath = PathToSourceFile(pc.Path)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if sourcePath != "" {
		eg.Go(func() error {
			f, err := a.store.GetFile(egCtx, sourcePath, a.baseBranch)
			if err != nil {
				logRead(egCtx, sourcePath, err)
				return nil
			}
			source = f
			return nil
		})
	}
	eg.Go(func() error {
		b, err := a.knowledge.Load(egCtx)
		if err != nil {
			logRead(egCtx, a.knowledge.Path(), err)
			return nil
		}
		kb = b
		return nil
	})
	if err := eg.Wait(); err != nil {
		return "", err
	}

	var content string
	if source != nil {
		content = source.Content
	} else {
		sourcePath = ""
	}
	var facts string
	if kb != nil {
		facts = kb.Facts()
	}
	return renderSystem(a.siteName, sourcePath, content, facts, kb != nil)
}

func logRead(ctx context.Context, path string, err error) {
	log := clog.FromContext(ctx).With("path", path)
	if errors.Is(err, contentstore.ErrNotFound) {
		log.Debug("Context file not found")
		return
	}
	log.Warnf("Failed to read context file: %v", err)
}

// toolsFor returns the tools of a turn, or none without a content store.
func (a *Assistant) toolsFor(t *turn) (*toolcall.Set, error) {
	if a.store == nil {
		return nil, nil
	}
	return t.tools()
}
