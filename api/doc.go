/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package api serves the site assistant over HTTP.
//
// Every /api route requires an "Authorization: Bearer <token>" header that
// the configured identity.Verifier accepts. Responses share one envelope:
//
//	{"success": true, ...payload}
//	{"success": false, "error": "..."}
//
// Domain errors map onto status codes in one place: validation failures are
// 400, unknown pull requests or files 404, stale or already resolved change
// sets 409, host and model provider failures 502 and anything else 500.
package api
