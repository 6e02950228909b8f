/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// NewTokenClient returns a GitHub client authenticated with a static token.
func NewTokenClient(ctx context.Context, token string) (*github.Client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts)), nil
}

// NewAppClient returns a GitHub client authenticated as a GitHub App installation.
// Installation tokens are minted and refreshed by the transport.
func NewAppClient(appID, installationID int64, privateKey []byte) (*github.Client, error) {
	if len(privateKey) == 0 {
		return nil, errors.New("private key cannot be empty")
	}
	tr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	return github.NewClient(&http.Client{Transport: tr}), nil
}
