package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrRevisionNotFound is returned when a ref, branch or hash cannot be resolved.
var ErrRevisionNotFound = errors.New("revision not found")

type native struct {
	repo *gitlib.Repository
	path string

	// mu guards the memoized ancestor set of the last base commit used by AheadBehind.
	mu       sync.Mutex
	baseHash string
	baseSet  map[string]struct{}
}

// OpenNative opens the repository rooted at repoPath with go-git.
func OpenNative(repoPath string) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &native{repo: repo, path: abs}, nil
}

func (n *native) RepoPath() string {
	if n == nil {
		return ""
	}
	return n.path
}

func (n *native) Fetch(ctx context.Context, remote string) error {
	cliErr := gitCLIUsable()
	if cliErr == nil {
		return fetchWithCLI(ctx, n.path, remote)
	}
	slog.Debug("git executable not usable, fetching with go-git", slog.Any("error", cliErr))
	err := n.repo.FetchContext(ctx, &gitlib.FetchOptions{RemoteName: remote, Prune: true})
	if err == nil || errors.Is(err, gitlib.NoErrAlreadyUpToDate) {
		return nil
	}
	return fmt.Errorf("go-git fetch: %w", err)
}

func (n *native) RemoteURL(remote string) (string, error) {
	r, err := n.repo.Remote(remote)
	if err != nil {
		if errors.Is(err, gitlib.ErrRemoteNotFound) {
			return "", nil
		}
		return "", err
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

func (n *native) HeadState() (hash string, headName string, ok bool, err error) {
	ref, err := n.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	headName = "HEAD"
	if ref.Name().IsBranch() {
		headName = ref.Name().Short()
	}
	return ref.Hash().String(), headName, true, nil
}

func (n *native) ListRefs() ([]Ref, error) {
	iter, err := n.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			refs = append(refs, Ref{Hash: ref.Hash().String(), Kind: RefKindBranch, Name: name.Short()})
		case name.IsRemote():
			refs = append(refs, Ref{Hash: ref.Hash().String(), Kind: RefKindRemoteBranch, Name: name.Short()})
		case name.IsTag():
			hash := ref.Hash()
			if peeled, ok := n.peelTagCommitHash(hash); ok {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash.String(), Kind: RefKindTag, Name: name.Short()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (n *native) peelTagCommitHash(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := n.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func (n *native) commitObject(rev string) (*object.Commit, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil, fmt.Errorf("%w: empty revision", ErrRevisionNotFound)
	}
	var hash plumbing.Hash
	if plumbing.IsHash(rev) {
		hash = plumbing.NewHash(rev)
	} else {
		h, err := n.repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			if errors.Is(err, plumbing.ErrReferenceNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
			}
			return nil, fmt.Errorf("resolve %s: %w", rev, err)
		}
		hash = *h
	}
	if peeled, ok := n.peelTagCommitHash(hash); ok {
		hash = peeled
	}
	c, err := n.repo.CommitObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
		}
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return c, nil
}

func (n *native) ResolveCommit(rev string) (*Commit, error) {
	c, err := n.commitObject(rev)
	if err != nil {
		return nil, err
	}
	return convertCommit(c), nil
}

func (n *native) Log(rev string, limit int) ([]*Commit, error) {
	start, err := n.commitObject(rev)
	if err != nil {
		return nil, err
	}
	iter, err := n.repo.Log(&gitlib.LogOptions{From: start.Hash, Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()
	var commits []*Commit
	for limit <= 0 || len(commits) < limit {
		c, err := iter.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		commits = append(commits, convertCommit(c))
	}
	return commits, nil
}

func (n *native) AheadBehind(baseHash, targetHash string) (ahead int, behind int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.baseSet == nil || n.baseHash != baseHash {
		set, err := reachableCommits(baseHash, n.parentHashes)
		if err != nil {
			return 0, 0, err
		}
		n.baseHash, n.baseSet = baseHash, set
	}
	targetSet, err := reachableCommits(targetHash, n.parentHashes)
	if err != nil {
		return 0, 0, err
	}
	ahead, behind = divergence(n.baseSet, targetSet)
	return ahead, behind, nil
}

func (n *native) parentHashes(hash string) ([]string, error) {
	c, err := n.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		// Shallow clones end the graph at commits whose parents were never fetched.
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, err
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return parents, nil
}

func convertCommit(c *object.Commit) *Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}
}
