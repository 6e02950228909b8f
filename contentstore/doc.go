/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package contentstore defines the capability set the site assistant needs from
the remote version-controlled host that holds the site source and the
knowledge collection.

# Errors

Every failure returned by an Interface implementation matches exactly one of
the sentinel errors below when checked with errors.Is:

  - ErrNotFound: the referenced file, branch or pull request is absent.
  - ErrConflict: a stale write, an existing branch, or an unmergeable PR.
  - ErrUpstream: anything else, typically a network failure or a 5xx.

Callers must not treat ErrUpstream as a domain answer. A missing file is
ErrNotFound, an outage is ErrUpstream, and only the former may drive a
fallback path.

# Implementations

  - githubstore: backed by the GitHub REST API via go-github.
  - contentstoretest: an in-memory fake for tests.
*/
package contentstore
