/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMAC verifies HS256 tokens signed with a shared secret.
type HMAC struct {
	secret []byte
	opts   []jwt.ParserOption
}

var _ Verifier = (*HMAC)(nil)

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// HMACOption configures an HMAC verifier.
type HMACOption func(*HMAC) error

// WithAudience requires the token's aud claim to contain aud.
func WithAudience(aud string) HMACOption {
	return func(h *HMAC) error {
		if aud == "" {
			return errors.New("audience cannot be empty")
		}
		h.opts = append(h.opts, jwt.WithAudience(aud))
		return nil
	}
}

// WithIssuer requires the token's iss claim to equal iss.
func WithIssuer(iss string) HMACOption {
	return func(h *HMAC) error {
		if iss == "" {
			return errors.New("issuer cannot be empty")
		}
		h.opts = append(h.opts, jwt.WithIssuer(iss))
		return nil
	}
}

// NewHMAC creates a verifier for tokens signed with secret.
func NewHMAC(secret []byte, opts ...HMACOption) (*HMAC, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret cannot be empty")
	}
	h := &HMAC{
		secret: secret,
		opts: []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		},
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return h, nil
}

// Verify implements Verifier.
func (h *HMAC) Verify(_ context.Context, raw string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, h.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email}, nil
}
