/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/changeset/patch"
	"chainguard.dev/siteassist/contentstore"
	"chainguard.dev/siteassist/contentstore/contentstoretest"
)

const pricingPath = "src/pages/pricing.html"

func newTestPipeline(t *testing.T, store *contentstoretest.Store, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	p.entropy = func() string { return "beef" }
	return p
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Update pricing", "update-pricing"},
		{"  Fix the FAQ!! ", "fix-the-faq"},
		{"update the pricing page copy", "update-the-pricing-p"},
		{"--already--dashed--", "already-dashed"},
		{"Ünïcødé", "n-c-d"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q): got = %q, wanted = %q", tt.in, got, tt.want)
		}
	}
}

func TestBranchName(t *testing.T) {
	p := newTestPipeline(t, contentstoretest.New("main", nil))
	// 1700000000000 in base 36.
	if got, want := p.branchName("Update pricing"), "ac/update-pricing-loyw3v28beef"; got != want {
		t.Errorf("branchName(): got = %q, wanted = %q", got, want)
	}
	if got, want := p.branchName(""), "ac/change-loyw3v28beef"; got != want {
		t.Errorf("branchName(empty): got = %q, wanted = %q", got, want)
	}
}

func TestBranchNamesDiffer(t *testing.T) {
	p, err := New(contentstoretest.New("main", nil))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	if a, b := p.branchName("same"), p.branchName("same"); a == b {
		t.Errorf("branchName() collided within one millisecond: %q", a)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	store := contentstoretest.New("main", map[string]string{
		pricingPath: "<h1>Plans</h1><p>$10/mo</p>",
	})
	store.SetNextPRNumber(42)
	p := newTestPipeline(t, store)

	cs, err := p.Submit(ctx, changeset.Proposal{
		Path:    pricingPath,
		Message: "Update pricing",
		Patches: []patch.Patch{{Find: "$10", Replace: "$12"}},
	})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if cs.PRNumber != 42 {
		t.Errorf("PRNumber: got = %d, wanted = 42", cs.PRNumber)
	}
	if cs.Applied != 1 || cs.Failed != 0 {
		t.Errorf("applied/failed: got = %d/%d, wanted = 1/0", cs.Applied, cs.Failed)
	}
	if got, _ := store.File(cs.Branch, pricingPath); got != "<h1>Plans</h1><p>$12/mo</p>" {
		t.Errorf("branch content: got = %q", got)
	}
	if got, _ := store.File("main", pricingPath); got != "<h1>Plans</h1><p>$10/mo</p>" {
		t.Errorf("main content changed before approval: got = %q", got)
	}

	pr, ok := store.PullRequest(42)
	if !ok {
		t.Fatal("pull request #42 was not created")
	}
	if pr.HeadRef != cs.Branch {
		t.Errorf("HeadRef: got = %q, wanted = %q", pr.HeadRef, cs.Branch)
	}
	if cs.HeadRef != cs.Branch {
		t.Errorf("ChangeSet.HeadRef: got = %q, wanted = %q", cs.HeadRef, cs.Branch)
	}
}

func TestSubmitPullRequestText(t *testing.T) {
	store := contentstoretest.New("main", map[string]string{pricingPath: "hello world"})
	p := newTestPipeline(t, store)
	var captured contentstore.NewPullRequest
	recorder := &recordingStore{Interface: store, onCreate: func(npr contentstore.NewPullRequest) { captured = npr }}
	p.store = recorder

	_, err := p.Submit(context.Background(), changeset.Proposal{
		Path:    pricingPath,
		Message: "Greeting",
		Patches: []patch.Patch{
			{Find: "hello", Replace: "goodbye"},
			{Find: "missing text", Replace: "x"},
		},
	})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if captured.Title != "🧰 Greeting" {
		t.Errorf("Title: got = %q, wanted = %q", captured.Title, "🧰 Greeting")
	}
	wantBody := "**Changed file:** `src/pages/pricing.html`\n" +
		"**Applied:** 1 patch(es)\n" +
		"**Failed:** 1 patch(es)\n" +
		"- `missing text`\n" +
		"\n```diff\n@@\n-hello world\n+goodbye world\n```\n" +
		"\n---\n_Created by Site Assistant_"
	if captured.Body != wantBody {
		t.Errorf("Body: got = %q, wanted = %q", captured.Body, wantBody)
	}
}

func TestSubmitNoPatchesMatched(t *testing.T) {
	store := contentstoretest.New("main", map[string]string{pricingPath: "abc"})
	p := newTestPipeline(t, store)

	_, err := p.Submit(context.Background(), changeset.Proposal{
		Path:    pricingPath,
		Message: "Nope",
		Patches: []patch.Patch{{Find: "xyz", Replace: "q"}},
	})
	if !errors.Is(err, changeset.ErrNoPatchesMatched) {
		t.Fatalf("Submit(): got = %v, wanted ErrNoPatchesMatched", err)
	}
	if !errors.Is(err, changeset.ErrInvalid) {
		t.Errorf("Submit(): got = %v, wanted a validation error", err)
	}
	if !strings.Contains(err.Error(), `Could not find: "xyz..."`) {
		t.Errorf("Submit() error lacks reason: %v", err)
	}
	if got := store.Calls("PutFile"); got != 0 {
		t.Errorf("PutFile calls: got = %d, wanted = 0", got)
	}
	if got := store.Calls("CreatePullRequest"); got != 0 {
		t.Errorf("CreatePullRequest calls: got = %d, wanted = 0", got)
	}
	if got := store.Branches(); len(got) != 1 || got[0] != "main" {
		t.Errorf("branches: got = %v, wanted = [main]", got)
	}
}

func TestSubmitNewFile(t *testing.T) {
	store := contentstoretest.New("main", nil)
	p := newTestPipeline(t, store)

	cs, err := p.Submit(context.Background(), changeset.Proposal{
		Path:    "src/pages/careers.html",
		Message: "Add careers page",
		Patches: []patch.Patch{{Find: "", Replace: "<h1>Careers</h1>"}},
	})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if got := store.Calls("GetFile"); got != 0 {
		t.Errorf("GetFile calls: got = %d, wanted = 0", got)
	}
	if cs.Applied != 1 {
		t.Errorf("Applied: got = %d, wanted = 1", cs.Applied)
	}
	if got, _ := store.File(cs.Branch, "src/pages/careers.html"); got != "<h1>Careers</h1>" {
		t.Errorf("new file content: got = %q", got)
	}
}

func TestSubmitNewFileAlreadyExists(t *testing.T) {
	store := contentstoretest.New("main", map[string]string{pricingPath: "old"})
	p := newTestPipeline(t, store)

	_, err := p.Submit(context.Background(), changeset.Proposal{
		Path:      pricingPath,
		IsNewFile: true,
		Patches:   []patch.Patch{{Replace: "new"}},
	})
	if !errors.Is(err, contentstore.ErrConflict) {
		t.Errorf("Submit(): got = %v, wanted ErrConflict", err)
	}
}

func TestSubmitStaleHash(t *testing.T) {
	base := contentstoretest.New("main", map[string]string{pricingPath: "price: $10"})
	store := &racingStore{Store: base}
	p := newTestPipeline(t, base)
	p.store = store

	_, err := p.Submit(context.Background(), changeset.Proposal{
		Path:    pricingPath,
		Message: "Bump",
		Patches: []patch.Patch{{Find: "$10", Replace: "$12"}},
	})
	if !errors.Is(err, contentstore.ErrConflict) {
		t.Fatalf("Submit(): got = %v, wanted ErrConflict", err)
	}
	if got := base.Calls("PutFile"); got != 1 {
		t.Errorf("PutFile calls: got = %d, wanted = 1 (conflicts are not retried)", got)
	}
	if got := base.Calls("CreatePullRequest"); got != 0 {
		t.Errorf("CreatePullRequest calls: got = %d, wanted = 0", got)
	}
}

func TestSubmitCleanupFailureDoesNotMaskError(t *testing.T) {
	store := contentstoretest.New("main", map[string]string{pricingPath: "abc"})
	store.FailOn("DeleteRef", errors.New("delete exploded"))
	p := newTestPipeline(t, store)

	_, err := p.Submit(context.Background(), changeset.Proposal{
		Path:    pricingPath,
		Patches: []patch.Patch{{Find: "xyz", Replace: "q"}},
	})
	if !errors.Is(err, changeset.ErrNoPatchesMatched) {
		t.Errorf("Submit(): got = %v, wanted ErrNoPatchesMatched", err)
	}
}

func TestSubmitInvalid(t *testing.T) {
	store := contentstoretest.New("main", nil)
	p := newTestPipeline(t, store)

	_, err := p.Submit(context.Background(), changeset.Proposal{Path: pricingPath})
	if !errors.Is(err, changeset.ErrInvalid) {
		t.Errorf("Submit(): got = %v, wanted ErrInvalid", err)
	}
	if got := store.Calls("GetRef"); got != 0 {
		t.Errorf("GetRef calls: got = %d, wanted = 0", got)
	}
}

func TestNewOptions(t *testing.T) {
	store := contentstoretest.New("main", nil)
	if _, err := New(nil); err == nil {
		t.Error("New(nil): got = nil, wanted error")
	}
	if _, err := New(store, WithBaseBranch("")); err == nil {
		t.Error("New(WithBaseBranch(\"\")): got = nil, wanted error")
	}
	p, err := New(store, WithBaseBranch("trunk"), WithBranchPrefix("/bot/"), WithTitleMarker(""))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if p.baseBranch != "trunk" || p.branchPrefix != "bot" {
		t.Errorf("options not applied: base=%q prefix=%q", p.baseBranch, p.branchPrefix)
	}
	if got := p.title("x"); got != "x" {
		t.Errorf("title without marker: got = %q, wanted = %q", got, "x")
	}
}

type recordingStore struct {
	contentstore.Interface
	onCreate func(contentstore.NewPullRequest)
}

func (r *recordingStore) CreatePullRequest(ctx context.Context, npr contentstore.NewPullRequest) (*contentstore.PullRequest, error) {
	r.onCreate(npr)
	return r.Interface.CreatePullRequest(ctx, npr)
}

// racingStore simulates another writer updating the file between the read
// and the commit.
type racingStore struct {
	*contentstoretest.Store
}

func (r *racingStore) GetFile(ctx context.Context, path, ref string) (*contentstore.File, error) {
	f, err := r.Store.GetFile(ctx, path, ref)
	if err == nil {
		r.SetFile(ref, path, f.Content+" (edited elsewhere)")
	}
	return f, err
}
