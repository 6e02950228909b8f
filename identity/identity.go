/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package identity verifies the bearer tokens operators present to the API.
//
// Session issuance lives elsewhere. Two verifiers are provided: HMAC for
// HS256 session tokens signed with a shared secret, and OIDC for tokens
// issued by an OpenID Connect provider.
package identity

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned for a missing, malformed, expired or
// otherwise unacceptable token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified operator behind a request.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached to ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
