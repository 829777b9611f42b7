package git

import (
	"context"
	"errors"
	"sync"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

type fakeBackend struct {
	repoPath string

	fetchFunc                func(remote string) error
	headStateFunc            func() (hash string, headName string, ok bool, err error)
	listRefsFunc             func() ([]gitbackend.Ref, error)
	resolveCommitFunc        func(rev string) (*gitbackend.Commit, error)
	aheadBehindFunc          func(baseHash, targetHash string) (int, int, error)
	diffTreesFunc            func(baseHash, targetHash string) ([]gitbackend.Change, error)
	readBlobFunc             func(rev, path string) ([]byte, bool, error)
	localChangesStatusFunc   func() (gitbackend.LocalChanges, error)
	hasLocalBranchFunc       func(name string) (bool, error)
	createTrackingBranchFunc func(name, remote string) error
	switchBranchFunc         func(branch string) error

	mu               sync.Mutex
	fetchCalls       int
	lastSwitchBranch string
	lastCreated      string
}

var _ gitbackend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) Fetch(_ context.Context, remote string) error {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	if f.fetchFunc != nil {
		return f.fetchFunc(remote)
	}
	return nil
}

func (f *fakeBackend) RemoteURL(string) (string, error) { return "", nil }

func (f *fakeBackend) HeadState() (hash string, headName string, ok bool, err error) {
	if f.headStateFunc != nil {
		return f.headStateFunc()
	}
	return "", "", false, errors.New("unexpected HeadState call")
}

func (f *fakeBackend) ListRefs() ([]gitbackend.Ref, error) {
	if f.listRefsFunc != nil {
		return f.listRefsFunc()
	}
	return nil, errors.New("unexpected ListRefs call")
}

func (f *fakeBackend) ResolveCommit(rev string) (*gitbackend.Commit, error) {
	if f.resolveCommitFunc != nil {
		return f.resolveCommitFunc(rev)
	}
	return nil, gitbackend.ErrRevisionNotFound
}

func (f *fakeBackend) Log(string, int) ([]*gitbackend.Commit, error) {
	return nil, errors.New("unexpected Log call")
}

func (f *fakeBackend) AheadBehind(baseHash, targetHash string) (int, int, error) {
	if f.aheadBehindFunc != nil {
		return f.aheadBehindFunc(baseHash, targetHash)
	}
	return 0, 0, nil
}

func (f *fakeBackend) DiffTrees(_ context.Context, baseHash, targetHash string) ([]gitbackend.Change, error) {
	if f.diffTreesFunc != nil {
		return f.diffTreesFunc(baseHash, targetHash)
	}
	return nil, errors.New("unexpected DiffTrees call")
}

func (f *fakeBackend) ReadBlob(rev, path string) ([]byte, bool, error) {
	if f.readBlobFunc != nil {
		return f.readBlobFunc(rev, path)
	}
	return nil, false, errors.New("unexpected ReadBlob call")
}

func (f *fakeBackend) BlobDiffText(string, string, []byte, []byte) (string, error) {
	return "", errors.New("unexpected BlobDiffText call")
}

func (f *fakeBackend) ReadTree(string, string) ([]gitbackend.TreeEntry, error) {
	return nil, errors.New("unexpected ReadTree call")
}

func (f *fakeBackend) LocalChangesStatus() (gitbackend.LocalChanges, error) {
	if f.localChangesStatusFunc != nil {
		return f.localChangesStatusFunc()
	}
	return gitbackend.LocalChanges{}, nil
}

func (f *fakeBackend) HasLocalBranch(name string) (bool, error) {
	if f.hasLocalBranchFunc != nil {
		return f.hasLocalBranchFunc(name)
	}
	return false, nil
}

func (f *fakeBackend) CreateTrackingBranch(name, remote string) error {
	f.lastCreated = name
	if f.createTrackingBranchFunc != nil {
		return f.createTrackingBranchFunc(name, remote)
	}
	return errors.New("unexpected CreateTrackingBranch call")
}

func (f *fakeBackend) SwitchBranch(branch string) error {
	f.lastSwitchBranch = branch
	if f.switchBranchFunc != nil {
		return f.switchBranchFunc(branch)
	}
	return errors.New("unexpected SwitchBranch call")
}
