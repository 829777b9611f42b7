package backend

import "context"

// Backend abstracts access to a single repository.
//
// The default implementation is backed by go-git; network fetches go
// through the git executable when a recent enough one is installed.
type Backend interface {
	RepoPath() string

	// Fetch refreshes remote-tracking refs of the named remote.
	Fetch(ctx context.Context, remote string) error
	RemoteURL(remote string) (string, error)

	HeadState() (hash string, headName string, ok bool, err error)
	ListRefs() ([]Ref, error)
	// ResolveCommit accepts full ref names, short names and hashes.
	ResolveCommit(rev string) (*Commit, error)
	Log(rev string, limit int) ([]*Commit, error)
	AheadBehind(baseHash, targetHash string) (ahead int, behind int, err error)

	DiffTrees(ctx context.Context, baseHash, targetHash string) ([]Change, error)
	// ReadBlob returns the file content at rev. ok is false when the path
	// does not exist in that revision.
	ReadBlob(rev, path string) (data []byte, ok bool, err error)
	BlobDiffText(oldPath, newPath string, oldData, newData []byte) (string, error)
	ReadTree(rev, dir string) ([]TreeEntry, error)

	LocalChangesStatus() (LocalChanges, error)
	HasLocalBranch(name string) (bool, error)
	CreateTrackingBranch(name, remote string) error
	SwitchBranch(name string) error
}

// Opener opens the backend for a repository root.
type Opener func(repoPath string) (Backend, error)
