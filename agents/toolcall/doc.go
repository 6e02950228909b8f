/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider independent tools the agent loop can call.
//
// A tool is declared once with a typed argument struct. The JSON schema the
// model sees is reflected from that struct and the raw arguments the model
// produces are decoded back into it before the handler runs:
//
//	type readArgs struct {
//		Path string `json:"path" jsonschema:"required,description=Repository relative path"`
//	}
//
//	read, err := toolcall.New("read_file", "Read a file",
//		func(ctx context.Context, args readArgs) (string, error) { ... })
//
// Tools are grouped into a Set, which exposes their definitions and routes
// calls by name.
package toolcall
