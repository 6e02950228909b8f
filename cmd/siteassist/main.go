/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the site assistant HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/siteassist/agents/executor/chatexecutor"
	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/llm/claudellm"
	"chainguard.dev/siteassist/agents/llm/openaillm"
	"chainguard.dev/siteassist/api"
	"chainguard.dev/siteassist/assistant"
	"chainguard.dev/siteassist/changeset/lifecycle"
	"chainguard.dev/siteassist/changeset/pipeline"
	"chainguard.dev/siteassist/changeset/preview"
	"chainguard.dev/siteassist/contentstore"
	"chainguard.dev/siteassist/contentstore/githubstore"
	"chainguard.dev/siteassist/identity"
	"chainguard.dev/siteassist/knowledge"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/google/go-github/v84/github"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	Port        int `env:"PORT,default=8080"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	// GitHub repository holding the site source.
	Owner        string `env:"GITHUB_OWNER,required"`
	Repo         string `env:"GITHUB_REPO,required"`
	BaseBranch   string `env:"GITHUB_BASE_BRANCH,default=main"`
	BranchPrefix string `env:"BRANCH_PREFIX,default=ac"`

	// Either a token or GitHub App credentials.
	GitHubToken    string `env:"GITHUB_TOKEN"`
	AppID          int64  `env:"GITHUB_APP_ID"`
	InstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	AppPrivateKey  string `env:"GITHUB_APP_PRIVATE_KEY"`

	PreviewProject     string `env:"PREVIEW_PROJECT"`
	PreviewURLTemplate string `env:"PREVIEW_URL_TEMPLATE"`
	KnowledgePath      string `env:"KNOWLEDGE_PATH,default=site-knowledge.json"`
	SiteName           string `env:"SITE_NAME,default=the website"`

	ModelProvider    string `env:"MODEL_PROVIDER,default=openai"`
	GatewayAPIKey    string `env:"AI_GATEWAY_API_KEY"`
	GatewayBaseURL   string `env:"AI_GATEWAY_BASE_URL,default=https://ai-gateway.vercel.sh/v1"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	DefaultModel     string `env:"DEFAULT_MODEL,default=anthropic/claude-sonnet-4.6"`
	MaxTokens        int    `env:"MAX_TOKENS,default=8192"`
	MaxIterations    int    `env:"MAX_ITERATIONS,default=10"`
	HistoryWindow    int    `env:"HISTORY_WINDOW,default=6"`
	MessageCharLimit int    `env:"MESSAGE_CHAR_LIMIT,default=2000"`

	// Either a shared session secret or an OIDC issuer.
	JWTSecret    string `env:"AUTH_JWT_SECRET"`
	JWTAudience  string `env:"AUTH_JWT_AUDIENCE"`
	OIDCIssuer   string `env:"AUTH_OIDC_ISSUER"`
	OIDCAudience string `env:"AUTH_OIDC_AUDIENCE"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	gh, err := githubClient(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating GitHub client: %v", err)
	}
	store, err := githubstore.New(gh, cfg.Owner, cfg.Repo)
	if err != nil {
		clog.FatalContextf(ctx, "creating content store: %v", err)
	}

	model, err := newModel(cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating model client: %v", err)
	}
	exec, err := chatexecutor.New(
		chatexecutor.WithMaxIterations(cfg.MaxIterations),
		chatexecutor.WithMaxTokens(int64(cfg.MaxTokens)),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating executor: %v", err)
	}
	kb, err := knowledge.NewStore(store, cfg.BaseBranch, knowledge.WithPath(cfg.KnowledgePath))
	if err != nil {
		clog.FatalContextf(ctx, "creating knowledge store: %v", err)
	}
	a, err := assistant.New(model,
		assistant.WithContentStore(store, cfg.BaseBranch),
		assistant.WithKnowledge(kb),
		assistant.WithExecutor(exec),
		assistant.WithDefaultModel(cfg.DefaultModel),
		assistant.WithSiteName(cfg.SiteName),
		assistant.WithHistoryWindow(cfg.HistoryWindow),
		assistant.WithMessageCharLimit(cfg.MessageCharLimit),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating assistant: %v", err)
	}

	p, err := pipeline.New(store,
		pipeline.WithBaseBranch(cfg.BaseBranch),
		pipeline.WithBranchPrefix(cfg.BranchPrefix),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating pipeline: %v", err)
	}
	lm, err := lifecycle.New(store)
	if err != nil {
		clog.FatalContextf(ctx, "creating lifecycle manager: %v", err)
	}
	pr, err := newPreview(store, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating preview resolver: %v", err)
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating session verifier: %v", err)
	}

	srv, err := api.New(verifier,
		api.WithAssistant(a),
		api.WithPipeline(p),
		api.WithLifecycle(lm),
		api.WithPreview(pr),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating server: %v", err)
	}

	go serveMetrics(ctx, cfg.MetricsPort)

	clog.InfoContextf(ctx, "Starting site assistant for %s/%s on port %d", cfg.Owner, cfg.Repo, cfg.Port)
	if err := srv.Start(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

func githubClient(ctx context.Context, cfg config) (*github.Client, error) {
	switch {
	case cfg.GitHubToken != "":
		return githubstore.NewTokenClient(ctx, cfg.GitHubToken)
	case cfg.AppID != 0 && cfg.InstallationID != 0 && cfg.AppPrivateKey != "":
		clog.InfoContextf(ctx, "Using GitHub App %d installation %d", cfg.AppID, cfg.InstallationID)
		return githubstore.NewAppClient(cfg.AppID, cfg.InstallationID, []byte(cfg.AppPrivateKey))
	default:
		return nil, errors.New("GITHUB_TOKEN or GITHUB_APP_ID, GITHUB_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY must be set")
	}
}

// newPreview builds the preview resolver. The deployment project defaults to
// the repository name.
func newPreview(store contentstore.Interface, cfg config) (*preview.Resolver, error) {
	var opts []preview.Option
	if cfg.PreviewProject != "" {
		opts = append(opts, preview.WithProject(cfg.PreviewProject))
	}
	if cfg.PreviewURLTemplate != "" {
		opts = append(opts, preview.WithURLTemplate(cfg.PreviewURLTemplate))
	}
	return preview.New(store, cfg.Owner, cfg.Repo, opts...)
}

func newModel(cfg config) (llm.Model, error) {
	switch cfg.ModelProvider {
	case "openai":
		if cfg.GatewayAPIKey == "" {
			return nil, errors.New("AI_GATEWAY_API_KEY not configured")
		}
		return openaillm.New(cfg.GatewayAPIKey, option.WithBaseURL(cfg.GatewayBaseURL))
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not configured")
		}
		return claudellm.New(cfg.AnthropicAPIKey)
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER %q", cfg.ModelProvider)
	}
}

func newVerifier(ctx context.Context, cfg config) (identity.Verifier, error) {
	switch {
	case cfg.JWTSecret != "":
		var opts []identity.HMACOption
		if cfg.JWTAudience != "" {
			opts = append(opts, identity.WithAudience(cfg.JWTAudience))
		}
		return identity.NewHMAC([]byte(cfg.JWTSecret), opts...)
	case cfg.OIDCIssuer != "":
		return identity.NewOIDC(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
	default:
		return nil, errors.New("AUTH_JWT_SECRET or AUTH_OIDC_ISSUER must be set")
	}
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), api.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			clog.WarnContextf(ctx, "Metrics server shutdown: %v", err)
		}
	}()
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.ErrorContextf(ctx, "Metrics server failed: %v", err)
	}
}
