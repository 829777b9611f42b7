// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Epoch is the timestamp of the first commit made by a Repo when no explicit
// time is given. Later commits advance by one minute each.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// Repo is a go-git repository rooted in a test temp directory.
type Repo struct {
	t    testing.TB
	Dir  string
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	next time.Time
}

// NewRepo initializes an empty repository whose HEAD points at master.
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	return NewRepoAt(t, t.TempDir())
}

// NewRepoAt initializes a repository at dir, creating it when missing.
func NewRepoAt(t testing.TB, dir string) *Repo {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create repo dir: %v", err)
	}
	repo, err := gitlib.PlainInitWithOptions(dir, &gitlib.PlainInitOptions{
		InitOptions: gitlib.InitOptions{DefaultBranch: plumbing.Master},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("open worktree: %v", err)
	}
	return &Repo{t: t, Dir: dir, repo: repo, wt: wt, next: Epoch}
}

// Git exposes the underlying go-git repository.
func (r *Repo) Git() *gitlib.Repository { return r.repo }

// WriteFile writes content to path relative to the repository root.
func (r *Repo) WriteFile(path, content string) {
	r.t.Helper()
	r.WriteBytes(path, []byte(content))
}

func (r *Repo) WriteBytes(path string, data []byte) {
	r.t.Helper()
	full := filepath.Join(r.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		r.t.Fatalf("write %s: %v", path, err)
	}
}

// Remove deletes a tracked file from the worktree and the index.
func (r *Repo) Remove(path string) {
	r.t.Helper()
	if _, err := r.wt.Remove(path); err != nil {
		r.t.Fatalf("remove %s: %v", path, err)
	}
}

// RemoveUntracked deletes a file that was never staged.
func (r *Repo) RemoveUntracked(path string) {
	r.t.Helper()
	if err := os.Remove(filepath.Join(r.Dir, filepath.FromSlash(path))); err != nil {
		r.t.Fatalf("remove %s: %v", path, err)
	}
}

// Commit stages every change in the worktree and commits it. The commit time
// advances by one minute per call.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	when := r.next
	r.next = r.next.Add(time.Minute)
	return r.CommitAt(msg, when)
}

// CommitAt is Commit with an explicit author and committer time.
func (r *Repo) CommitAt(msg string, when time.Time) string {
	r.t.Helper()
	if err := r.wt.AddWithOptions(&gitlib.AddOptions{All: true}); err != nil {
		r.t.Fatalf("stage: %v", err)
	}
	sig := &object.Signature{Name: "Review Test", Email: "test@gitk-review.dev", When: when}
	hash, err := r.wt.Commit(msg, &gitlib.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("commit %q: %v", msg, err)
	}
	return hash.String()
}

// Checkout switches to branch, creating it at the current HEAD when create is set.
func (r *Repo) Checkout(branch string, create bool) {
	r.t.Helper()
	err := r.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	})
	if err != nil {
		r.t.Fatalf("checkout %s: %v", branch, err)
	}
}

// DetachAt points HEAD directly at hash.
func (r *Repo) DetachAt(hash string) {
	r.t.Helper()
	if err := r.wt.Checkout(&gitlib.CheckoutOptions{Hash: plumbing.NewHash(hash)}); err != nil {
		r.t.Fatalf("detach at %s: %v", hash, err)
	}
}

// SetBranch points the local branch name at hash without touching the worktree.
func (r *Repo) SetBranch(name, hash string) {
	r.t.Helper()
	r.setRef(plumbing.NewBranchReferenceName(name), hash)
}

// SetRemoteBranch creates or moves the remote-tracking ref remote/name.
func (r *Repo) SetRemoteBranch(remote, name, hash string) {
	r.t.Helper()
	r.setRef(plumbing.NewRemoteReferenceName(remote, name), hash)
}

// AddRemote registers a remote with the given URL. Nothing is fetched.
func (r *Repo) AddRemote(name, url string) {
	r.t.Helper()
	if _, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		r.t.Fatalf("add remote %s: %v", name, err)
	}
}

func (r *Repo) setRef(name plumbing.ReferenceName, hash string) {
	r.t.Helper()
	ref := plumbing.NewHashReference(name, plumbing.NewHash(hash))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("set %s: %v", name, err)
	}
}

// HeadBranch returns the short name of the checked out branch, or "HEAD" when detached.
func (r *Repo) HeadBranch() string {
	r.t.Helper()
	ref, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("read HEAD: %v", err)
	}
	if ref.Name().IsBranch() {
		return ref.Name().Short()
	}
	return "HEAD"
}
