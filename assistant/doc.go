/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package assistant runs conversation turns of the site assistant.
//
// A turn gathers the source of the page the operator is looking at and the
// site knowledge base, builds the system prompt, trims the conversation
// history and hands everything to a bounded tool-calling loop. The model
// can read files, record facts and propose edits. Proposed edits are never
// committed during the turn: they are returned as changeset.Proposal values
// for an operator to submit and approve.
package assistant
