/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDC verifies ID tokens issued by an OpenID Connect provider.
type OIDC struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*OIDC)(nil)

// NewOIDC discovers issuer and verifies tokens minted for audience.
// Signing keys are fetched and rotated by the provider's key set.
func NewOIDC(ctx context.Context, issuer, audience string) (*OIDC, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", issuer, err)
	}
	return &OIDC{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

// Verify implements Verifier.
func (o *OIDC) Verify(ctx context.Context, raw string) (*Identity, error) {
	tok, err := o.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	var claims struct {
		Email string `json:"email"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decoding claims: %w", ErrUnauthenticated, err)
	}
	return &Identity{Subject: tok.Subject, Email: claims.Email}, nil
}
