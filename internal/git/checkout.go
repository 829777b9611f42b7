package git

import (
	"context"
	"fmt"
	"log/slog"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

type checkoutState uint8

const (
	stateIdle checkoutState = iota
	stateResolving
	stateSwitching
	stateSucceeded
	stateFailed
)

func (s checkoutState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateResolving:
		return "resolving"
	case stateSwitching:
		return "switching"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("checkoutState(%d)", uint8(s))
	}
}

// checkoutRun carries one checkout through its states. Every step returns
// the next state; stateSucceeded and stateFailed are terminal.
type checkoutRun struct {
	svc    *Service
	key    string
	branch string

	slot     RepositorySlot
	backend  gitbackend.Backend
	local    string
	previous *string
	current  string
	err      error
	locked   bool
}

// Checkout switches the repository of key to branch. A remote prefix on
// branch is stripped. The working tree is never touched when it has
// uncommitted or untracked changes, and nothing is forced or stashed.
func (s *Service) Checkout(ctx context.Context, key, branch string) CheckoutResult {
	run := &checkoutRun{svc: s, key: key, branch: branch}
	state := stateIdle
	for state != stateSucceeded && state != stateFailed {
		next := run.step(ctx, state)
		slog.Debug("checkout transition",
			slog.String("repository", key),
			slog.String("from", state.String()),
			slog.String("to", next.String()))
		state = next
	}
	return run.result(state)
}

func (r *checkoutRun) step(ctx context.Context, state checkoutState) checkoutState {
	switch state {
	case stateIdle:
		return r.resolve()
	case stateResolving:
		return r.prepare(ctx)
	case stateSwitching:
		return r.switchBranch()
	default:
		r.err = fmt.Errorf("%w: unexpected state %s", ErrCheckoutFailed, state)
		return stateFailed
	}
}

func (r *checkoutRun) resolve() checkoutState {
	slot, b, err := r.svc.resolveBackend(r.key)
	if err != nil {
		r.err = err
		return stateFailed
	}
	r.slot, r.backend = slot, b
	r.local = r.svc.stripRemote(r.branch)
	if r.local == "" {
		r.err = fmt.Errorf("%w: empty branch name", ErrBranchNotFound)
		return stateFailed
	}
	return stateResolving
}

// prepare refreshes the remote, records the previous branch and applies the
// dirty-tree guard. The slot write lock is taken here and released by result.
func (r *checkoutRun) prepare(ctx context.Context) checkoutState {
	r.svc.repoLock(r.slot.Key).Lock()
	r.locked = true
	_ = r.svc.refreshLocked(ctx, r.slot, r.backend)

	if _, head, ok, err := r.backend.HeadState(); err == nil && ok {
		prev := head
		r.previous = &prev
		r.current = head
	}

	changes, err := r.backend.LocalChangesStatus()
	if err != nil {
		r.err = fmt.Errorf("%w: read working tree status: %v", ErrCheckoutFailed, err)
		return stateFailed
	}
	if changes.Dirty() {
		r.err = fmt.Errorf("%w: commit or stash changes in %s before switching branches", ErrDirtyWorkingTree, r.slot.Key)
		return stateFailed
	}
	return stateSwitching
}

func (r *checkoutRun) switchBranch() checkoutState {
	exists, err := r.backend.HasLocalBranch(r.local)
	if err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
		return stateFailed
	}
	if !exists {
		remote := r.svc.opts.Remote
		if _, err := r.backend.ResolveCommit(remote + "/" + r.local); err != nil {
			r.err = fmt.Errorf("%w: %s not found locally or on %s", ErrBranchNotFound, r.local, remote)
			return stateFailed
		}
		if err := r.backend.CreateTrackingBranch(r.local, remote); err != nil {
			r.err = fmt.Errorf("%w: create %s from %s/%s: %v", ErrCheckoutFailed, r.local, remote, r.local, err)
			return stateFailed
		}
	}
	if err := r.backend.SwitchBranch(r.local); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
		return stateFailed
	}
	_, head, ok, err := r.backend.HeadState()
	if err != nil || !ok {
		r.err = fmt.Errorf("%w: cannot verify HEAD after switch: %v", ErrCheckoutFailed, err)
		return stateFailed
	}
	r.current = head
	if head != r.local {
		r.err = fmt.Errorf("%w: expected %s after switch, HEAD is %s", ErrCheckoutFailed, r.local, head)
		return stateFailed
	}
	return stateSucceeded
}

func (r *checkoutRun) result(state checkoutState) CheckoutResult {
	if r.locked {
		r.svc.repoLock(r.slot.Key).Unlock()
	}
	res := CheckoutResult{
		Success:        state == stateSucceeded,
		CurrentBranch:  r.current,
		PreviousBranch: r.previous,
		RepositoryKey:  r.key,
	}
	if res.Success {
		res.Message = fmt.Sprintf("Switched to branch %s", r.local)
		return res
	}
	res.Message = r.err.Error()
	res.ErrorKind = ErrorKind(r.err)
	return res
}
