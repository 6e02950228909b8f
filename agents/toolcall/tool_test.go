/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

type greetArgs struct {
	Name string `json:"name" jsonschema:"required,description=Who to greet"`
}

func (a *greetArgs) Validate() error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func greeter(t *testing.T) toolcall.Tool {
	t.Helper()
	tool, err := toolcall.New("greet", "Greet someone", func(_ context.Context, args greetArgs) (string, error) {
		return "hello " + args.Name, nil
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return tool
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    greetArgs
		wantErr bool
	}{{
		name: "valid",
		raw:  `{"name":"ada"}`,
		want: greetArgs{Name: "ada"},
	}, {
		name: "trailing comma repaired",
		raw:  `{"name":"ada",}`,
		want: greetArgs{Name: "ada"},
	}, {
		name: "single quotes repaired",
		raw:  `{'name': 'ada'}`,
		want: greetArgs{Name: "ada"},
	}, {
		name:    "validation failure",
		raw:     `{}`,
		wantErr: true,
	}, {
		name:    "empty arguments fail validation",
		raw:     "",
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toolcall.Decode[greetArgs](tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error: got = %v, wanted error = %t", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, toolcall.ErrBadArguments) {
					t.Errorf("Decode() error: got = %v, wanted ErrBadArguments", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() (-want, +got): %s", diff)
			}
		})
	}
}

func TestNewReflectsParameters(t *testing.T) {
	tool := greeter(t)
	if tool.Def.Name != "greet" || tool.Def.Description != "Greet someone" {
		t.Errorf("Def: got = %+v", tool.Def)
	}
	if diff := cmp.Diff([]any{"name"}, tool.Def.Parameters["required"]); diff != "" {
		t.Errorf("required (-want, +got): %s", diff)
	}
}

func TestSetDispatch(t *testing.T) {
	set, err := toolcall.NewSet(greeter(t))
	if err != nil {
		t.Fatalf("NewSet() = %v", err)
	}
	ctx := context.Background()

	got, err := set.Dispatch(ctx, llm.ToolCall{ID: "1", Name: "greet", Arguments: `{"name":"ada"}`})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	if got != "hello ada" {
		t.Errorf("Dispatch(): got = %q, wanted = %q", got, "hello ada")
	}

	if _, err := set.Dispatch(ctx, llm.ToolCall{Name: "nope"}); !errors.Is(err, toolcall.ErrUnknownTool) {
		t.Errorf("Dispatch(nope): got = %v, wanted ErrUnknownTool", err)
	}
	if _, err := set.Dispatch(ctx, llm.ToolCall{Name: "greet", Arguments: "{"}); !errors.Is(err, toolcall.ErrBadArguments) {
		t.Errorf("Dispatch(bad args): got = %v, wanted ErrBadArguments", err)
	}
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	if _, err := toolcall.NewSet(greeter(t), greeter(t)); err == nil {
		t.Error("NewSet(): got = nil, wanted duplicate error")
	}
}

func TestNilSet(t *testing.T) {
	var set *toolcall.Set
	if set.Len() != 0 || set.Definitions() != nil {
		t.Error("nil set should be empty")
	}
	if _, err := set.Dispatch(context.Background(), llm.ToolCall{Name: "greet"}); !errors.Is(err, toolcall.ErrUnknownTool) {
		t.Errorf("Dispatch(): got = %v, wanted ErrUnknownTool", err)
	}
}

func TestError(t *testing.T) {
	got := toolcall.Error("File not found: %s", `a"b.md`)
	if want := `{"error":"File not found: a\"b.md"}`; got != want {
		t.Errorf("Error(): got = %s, wanted = %s", got, want)
	}
	if !strings.HasPrefix(toolcall.Error("x"), `{"error":`) {
		t.Error("Error() should render an object")
	}
}
