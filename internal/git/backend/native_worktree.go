package backend

import (
	"errors"
	"fmt"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrBranchExists is returned by CreateTrackingBranch when the local branch is already present.
var ErrBranchExists = errors.New("branch already exists")

func (n *native) LocalChangesStatus() (LocalChanges, error) {
	var res LocalChanges
	wt, err := n.repo.Worktree()
	if err != nil {
		return res, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return res, fmt.Errorf("worktree status: %w", err)
	}
	for _, st := range status {
		if st.Worktree == gitlib.Untracked {
			res.HasUntracked = true
			continue
		}
		if st.Worktree != gitlib.Unmodified {
			res.HasWorktree = true
		}
		if st.Staging != gitlib.Unmodified {
			res.HasStaged = true
		}
	}
	return res, nil
}

func (n *native) HasLocalBranch(name string) (bool, error) {
	_, err := n.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("lookup branch %s: %w", name, err)
}

func (n *native) CreateTrackingBranch(name, remote string) error {
	exists, err := n.HasLocalBranch(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrBranchExists, name)
	}
	remoteRef, err := n.repo.Reference(plumbing.NewRemoteReferenceName(remote, name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrRevisionNotFound, remote, name)
		}
		return fmt.Errorf("lookup %s/%s: %w", remote, name, err)
	}
	local := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), remoteRef.Hash())
	if err := n.repo.Storer.SetReference(local); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	err = n.repo.CreateBranch(&config.Branch{
		Name:   name,
		Remote: remote,
		Merge:  plumbing.NewBranchReferenceName(name),
	})
	if err != nil && !errors.Is(err, gitlib.ErrBranchExists) {
		return fmt.Errorf("configure tracking for %s: %w", name, err)
	}
	return nil
}

func (n *native) SwitchBranch(name string) error {
	wt, err := n.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.Checkout(&gitlib.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}
	return nil
}
