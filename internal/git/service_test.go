package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// fakeWorkspace lays out a workspace whose repositories only carry an
// empty .git directory; every key opens fb.
func fakeWorkspace(t *testing.T, fb *fakeBackend, opts Options) *Service {
	t.Helper()
	ws := t.TempDir()
	for _, folder := range DefaultRepositories() {
		if err := os.MkdirAll(filepath.Join(ws, folder, ".git"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	opener := func(root string) (gitbackend.Backend, error) {
		fb.repoPath = root
		return fb, nil
	}
	return New(NewResolver(ws, nil), opener, opts)
}

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fakeCommit(hash string, when time.Time) *gitbackend.Commit {
	return &gitbackend.Commit{
		Hash:      hash,
		Author:    gitbackend.Signature{Name: "Dev", Email: "dev@example.com", When: when},
		Committer: gitbackend.Signature{Name: "Dev", Email: "dev@example.com", When: when},
		Message:   "commit " + hash + "\n\nbody",
	}
}

func branchFake(commits map[string]*gitbackend.Commit, refs []gitbackend.Ref, head string) *fakeBackend {
	return &fakeBackend{
		listRefsFunc: func() ([]gitbackend.Ref, error) { return refs, nil },
		resolveCommitFunc: func(rev string) (*gitbackend.Commit, error) {
			if c, ok := commits[rev]; ok {
				return c, nil
			}
			return nil, gitbackend.ErrRevisionNotFound
		},
		headStateFunc: func() (string, string, bool, error) { return "h", head, true, nil },
	}
}

func remoteRef(name, hash string) gitbackend.Ref {
	return gitbackend.Ref{Name: name, Hash: hash, Kind: gitbackend.RefKindRemoteBranch}
}

func TestListRecentBranchesOrderLimitAndFilter(t *testing.T) {
	t.Parallel()

	commits := map[string]*gitbackend.Commit{
		"aaaaaaaaaa": fakeCommit("aaaaaaaaaa", t0.Add(1*time.Hour)),
		"bbbbbbbbbb": fakeCommit("bbbbbbbbbb", t0.Add(2*time.Hour)),
		"cccccccccc": fakeCommit("cccccccccc", t0.Add(3*time.Hour)),
		"mmmmmmmmmm": fakeCommit("mmmmmmmmmm", t0.Add(4*time.Hour)),
	}
	commits["origin/master"] = commits["mmmmmmmmmm"]
	refs := []gitbackend.Ref{
		remoteRef("origin/t1", "aaaaaaaaaa"),
		remoteRef("origin/t3", "cccccccccc"),
		remoteRef("origin/t2", "bbbbbbbbbb"),
		remoteRef("origin/master", "mmmmmmmmmm"),
		remoteRef("origin/Release-2024", "mmmmmmmmmm"),
		remoteRef("origin/feature-MAIN-fix", "mmmmmmmmmm"),
		remoteRef("upstream/other", "mmmmmmmmmm"),
		{Name: "t9", Hash: "mmmmmmmmmm", Kind: gitbackend.RefKindBranch},
	}
	fb := branchFake(commits, refs, "t3")
	fb.aheadBehindFunc = func(base, target string) (int, int, error) {
		if base != "mmmmmmmmmm" {
			t.Errorf("unexpected base %s", base)
		}
		return 2, 5, nil
	}
	svc := fakeWorkspace(t, fb, Options{Fetch: false})

	got, err := svc.ListRecentBranches(context.Background(), "content", 2)
	if err != nil {
		t.Fatalf("ListRecentBranches: %v", err)
	}
	if len(got) != 2 || got[0].DisplayName != "t3" || got[1].DisplayName != "t2" {
		t.Fatalf("unexpected branches %+v", got)
	}
	if !got[0].IsCurrent || got[1].IsCurrent {
		t.Fatalf("unexpected current flags %+v", got)
	}
	if got[0].CommitHash != "cccccccc" || got[0].CommitMessage != "commit cccccccccc" {
		t.Fatalf("unexpected commit fields %+v", got[0])
	}
	if got[0].CommitsAhead != 2 || got[0].CommitsBehind != 5 || got[0].RepositoryKey != "content" {
		t.Fatalf("unexpected ahead/behind %+v", got[0])
	}
	if fb.fetchCalls != 0 {
		t.Fatalf("fetch disabled but called %d times", fb.fetchCalls)
	}

	again, err := svc.ListRecentBranches(context.Background(), "content", 2)
	if err != nil {
		t.Fatalf("ListRecentBranches: %v", err)
	}
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("listing not idempotent: %+v vs %+v", got[i], again[i])
		}
	}
}

func TestListRecentBranchesReservedNamesNeverListed(t *testing.T) {
	t.Parallel()

	commits := map[string]*gitbackend.Commit{"x": fakeCommit("x", t0)}
	var refs []gitbackend.Ref
	for _, name := range []string{"head-start", "Develop", "releases/1", "domain", "MASTER-copy", "ok"} {
		refs = append(refs, remoteRef("origin/"+name, "x"))
	}
	svc := fakeWorkspace(t, branchFake(commits, refs, "ok"), Options{Fetch: false})
	got, err := svc.ListRecentBranches(context.Background(), "content", 0)
	if err != nil {
		t.Fatalf("ListRecentBranches: %v", err)
	}
	if len(got) != 1 || got[0].DisplayName != "ok" {
		t.Fatalf("expected only ok, got %+v", got)
	}
	for _, br := range got {
		lower := strings.ToLower(br.DisplayName)
		for _, r := range DefaultReservedNames() {
			if strings.Contains(lower, strings.ToLower(r)) {
				t.Fatalf("reserved name listed: %s", br.DisplayName)
			}
		}
	}
}

func TestListRecentBranchesFetchFailureAndMissingBase(t *testing.T) {
	t.Parallel()

	commits := map[string]*gitbackend.Commit{"x": fakeCommit("x", t0)}
	fb := branchFake(commits, []gitbackend.Ref{remoteRef("origin/feat", "x")}, "HEAD")
	fb.fetchFunc = func(string) error { return errors.New("network down") }
	fb.aheadBehindFunc = func(string, string) (int, int, error) {
		t.Errorf("AheadBehind must not run without a base")
		return 0, 0, nil
	}
	svc := fakeWorkspace(t, fb, Options{Fetch: true})

	got, err := svc.ListRecentBranches(context.Background(), "content", 5)
	if err != nil {
		t.Fatalf("ListRecentBranches: %v", err)
	}
	if fb.fetchCalls != 1 {
		t.Fatalf("expected one fetch attempt, got %d", fb.fetchCalls)
	}
	if len(got) != 1 || got[0].CommitsAhead != 0 || got[0].CommitsBehind != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got[0].IsCurrent {
		t.Fatalf("detached HEAD must not mark branches current")
	}
}

func TestListRecentBranchesInvalidKey(t *testing.T) {
	t.Parallel()

	svc := fakeWorkspace(t, &fakeBackend{}, Options{})
	_, err := svc.ListRecentBranches(context.Background(), "nope", 5)
	if !errors.Is(err, ErrInvalidRepositoryKey) {
		t.Fatalf("expected ErrInvalidRepositoryKey, got %v", err)
	}
}

func checkoutFake(dirty gitbackend.LocalChanges) *fakeBackend {
	head := "master"
	fb := &fakeBackend{
		headStateFunc: func() (string, string, bool, error) { return "h", head, true, nil },
		localChangesStatusFunc: func() (gitbackend.LocalChanges, error) {
			return dirty, nil
		},
		resolveCommitFunc: func(rev string) (*gitbackend.Commit, error) {
			if rev == "origin/feature-x" {
				return fakeCommit("f", t0), nil
			}
			return nil, gitbackend.ErrRevisionNotFound
		},
		createTrackingBranchFunc: func(string, string) error { return nil },
	}
	fb.switchBranchFunc = func(branch string) error {
		head = branch
		return nil
	}
	return fb
}

func TestCheckoutStripsRemotePrefix(t *testing.T) {
	t.Parallel()

	fb := checkoutFake(gitbackend.LocalChanges{})
	svc := fakeWorkspace(t, fb, Options{Fetch: false})
	res := svc.Checkout(context.Background(), "content", "origin/feature-x")
	if !res.Success {
		t.Fatalf("checkout failed: %+v", res)
	}
	if res.CurrentBranch != "feature-x" || res.PreviousBranch == nil || *res.PreviousBranch != "master" {
		t.Fatalf("unexpected result %+v", res)
	}
	if fb.lastCreated != "feature-x" || fb.lastSwitchBranch != "feature-x" {
		t.Fatalf("expected tracking branch creation, got created=%q switched=%q", fb.lastCreated, fb.lastSwitchBranch)
	}
}

func TestCheckoutDirtyTreeGuard(t *testing.T) {
	t.Parallel()

	for _, dirty := range []gitbackend.LocalChanges{
		{HasWorktree: true},
		{HasStaged: true},
		{HasUntracked: true},
	} {
		fb := checkoutFake(dirty)
		svc := fakeWorkspace(t, fb, Options{Fetch: false})
		res := svc.Checkout(context.Background(), "content", "feature-x")
		if res.Success || res.ErrorKind != "DirtyWorkingTree" {
			t.Fatalf("expected DirtyWorkingTree for %+v, got %+v", dirty, res)
		}
		if fb.lastSwitchBranch != "" || fb.lastCreated != "" {
			t.Fatalf("dirty tree was touched: %+v", fb)
		}
		if res.CurrentBranch != "master" {
			t.Fatalf("active branch changed: %+v", res)
		}
	}
}

func TestCheckoutBranchNotFound(t *testing.T) {
	t.Parallel()

	fb := checkoutFake(gitbackend.LocalChanges{})
	svc := fakeWorkspace(t, fb, Options{Fetch: false})
	res := svc.Checkout(context.Background(), "content", "ghost")
	if res.Success || res.ErrorKind != "BranchNotFound" {
		t.Fatalf("expected BranchNotFound, got %+v", res)
	}
	if res.PreviousBranch == nil || *res.PreviousBranch != "master" {
		t.Fatalf("previous branch not reported: %+v", res)
	}
}

func TestCheckoutSwitchFailure(t *testing.T) {
	t.Parallel()

	fb := checkoutFake(gitbackend.LocalChanges{})
	fb.hasLocalBranchFunc = func(string) (bool, error) { return true, nil }
	fb.switchBranchFunc = func(string) error { return errors.New("boom") }
	svc := fakeWorkspace(t, fb, Options{Fetch: false})
	res := svc.Checkout(context.Background(), "content", "feature-x")
	if res.Success || res.ErrorKind != "CheckoutFailed" || !strings.Contains(res.Message, "boom") {
		t.Fatalf("expected CheckoutFailed, got %+v", res)
	}
	if fb.lastCreated != "" {
		t.Fatalf("existing local branch must not be recreated")
	}
}

func TestCheckoutUnknownRepository(t *testing.T) {
	t.Parallel()

	svc := New(NewResolver(t.TempDir(), nil), nil, Options{})
	res := svc.Checkout(context.Background(), "content", "x")
	if res.Success || res.ErrorKind != "RepoNotFound" {
		t.Fatalf("expected RepoNotFound, got %+v", res)
	}
	res = svc.Checkout(context.Background(), "bogus", "x")
	if res.ErrorKind != "InvalidRepositoryKey" {
		t.Fatalf("expected InvalidRepositoryKey, got %+v", res)
	}
}

func TestCompareEstimatesAndSummary(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{
		resolveCommitFunc: func(rev string) (*gitbackend.Commit, error) {
			switch rev {
			case "origin/master":
				return fakeCommit("base", t0), nil
			case "origin/feat":
				return fakeCommit("tip", t0), nil
			}
			return nil, gitbackend.ErrRevisionNotFound
		},
		diffTreesFunc: func(string, string) ([]gitbackend.Change, error) {
			return []gitbackend.Change{
				{FromPath: "a.go", ToPath: "a.go", Action: gitbackend.ActionModify, Patch: "--- a/a.go\n+++ b/a.go\n@@ -1 +1,2 @@\n-x\n+y\n+z\n"},
				{ToPath: "img.png", Action: gitbackend.ActionInsert, Binary: true},
				{FromPath: "old.txt", Action: gitbackend.ActionDelete, Binary: true},
				{FromPath: "r1", ToPath: "r2", Action: gitbackend.ActionRename},
			}, nil
		},
	}
	svc := fakeWorkspace(t, fb, Options{Fetch: false})
	cmp, err := svc.Compare(context.Background(), "content", "feat", "")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.TotalFiles != 4 || cmp.TotalAdditions != 3 || cmp.TotalDeletions != 2 {
		t.Fatalf("unexpected totals %+v", cmp)
	}
	if cmp.Summary != "4 files changed, 3 insertions(+), 2 deletions(-)" {
		t.Fatalf("unexpected summary %q", cmp.Summary)
	}
	if f := cmp.Files[1]; !f.Estimated || f.ChangeType != ChangeAdded || f.Additions != 1 {
		t.Fatalf("unexpected binary insert %+v", f)
	}
	if f := cmp.Files[3]; f.ChangeType != ChangeRenamed || f.OldPath == nil || *f.OldPath != "r1" || f.Estimated {
		t.Fatalf("unexpected rename %+v", f)
	}
	if cmp.Files[0].OldPath != nil {
		t.Fatalf("OldPath set on modified file")
	}
}

func TestCompareUnknownBranch(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	svc := fakeWorkspace(t, fb, Options{Fetch: false})
	if _, err := svc.Compare(context.Background(), "content", "nope", "master"); !errors.Is(err, ErrBranchNotFound) {
		t.Fatalf("expected ErrBranchNotFound, got %v", err)
	}
}

func TestComparisonSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		files, add, del int
		want            string
	}{
		{0, 0, 0, "0 files changed"},
		{3, 12, 4, "3 files changed, 12 insertions(+), 4 deletions(-)"},
		{1, 0, 2, "1 files changed, 2 deletions(-)"},
		{1, 5, 0, "1 files changed, 5 insertions(+)"},
	}
	for _, tt := range tests {
		if got := comparisonSummary(tt.files, tt.add, tt.del); got != tt.want {
			t.Fatalf("comparisonSummary(%d,%d,%d) = %q, want %q", tt.files, tt.add, tt.del, got, tt.want)
		}
	}
}

func TestSummaryLineAndAuthor(t *testing.T) {
	t.Parallel()

	if got := summaryLine("  \n"); got != noCommitMessage {
		t.Fatalf("empty message: %q", got)
	}
	long := strings.Repeat("é", 150)
	if got := summaryLine(long + "\nbody"); len([]rune(got)) != 100 {
		t.Fatalf("expected 100 runes, got %d", len([]rune(got)))
	}
	name, email := authorOf(gitbackend.Signature{})
	if name != "Unknown" || email != "unknown@unknown.com" {
		t.Fatalf("unexpected fallbacks %q %q", name, email)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	if ErrorKind(nil) != "" {
		t.Fatalf("nil error must have no kind")
	}
	wrapped := errors.Join(errors.New("ctx"), ErrDirtyWorkingTree)
	if got := ErrorKind(wrapped); got != "DirtyWorkingTree" {
		t.Fatalf("got %q", got)
	}
	if got := ErrorKind(errors.New("other")); got != "Internal" {
		t.Fatalf("got %q", got)
	}
}

func TestFetchAllIgnoresFetchOption(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{}
	svc := fakeWorkspace(t, fb, Options{Fetch: false})

	report := svc.FetchAll(context.Background())
	if !report.Success || len(report.Errors) != 0 {
		t.Fatalf("unexpected failure %+v", report)
	}
	if strings.Join(report.Fetched, ",") != "content,dimensions" {
		t.Fatalf("expected both repositories fetched in order, got %v", report.Fetched)
	}
	if fb.fetchCalls != 2 {
		t.Fatalf("expected two fetches, got %d", fb.fetchCalls)
	}
	if report.Message != "Fetched content, dimensions" {
		t.Fatalf("unexpected message %q", report.Message)
	}
}

func TestFetchAllReportsFailures(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{fetchFunc: func(string) error { return errors.New("network down") }}
	svc := fakeWorkspace(t, fb, Options{})

	report := svc.FetchAll(context.Background())
	if report.Success {
		t.Fatalf("expected failure, got %+v", report)
	}
	if len(report.Fetched) != 0 || len(report.Errors) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, e := range report.Errors {
		if !strings.Contains(e, "network down") {
			t.Fatalf("error lost its cause: %q", e)
		}
	}
	if report.Message != "2 of 2 repositories failed to fetch" {
		t.Fatalf("unexpected message %q", report.Message)
	}
}
