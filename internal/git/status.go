package git

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// Status reports the state of every configured repository. Problems with
// one repository are logged and reflected in its entry, never returned.
func (s *Service) Status(ctx context.Context) map[string]RepositoryStatus {
	out := make(map[string]RepositoryStatus, len(s.resolver.Keys()))
	for _, key := range s.resolver.Keys() {
		if ctx.Err() != nil {
			break
		}
		out[key] = s.repositoryStatus(key)
	}
	return out
}

func (s *Service) repositoryStatus(key string) RepositoryStatus {
	var st RepositoryStatus
	root, err := s.resolver.Path(key)
	if err != nil {
		return st
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return st
	}
	st.Exists = true
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return st
	}
	st.IsVersionControlled = true

	b, err := s.backendFor(RepositorySlot{Key: key, Root: root})
	if err != nil {
		slog.Warn("cannot open repository", slog.String("repository", key), slog.Any("error", err))
		return st
	}
	l := s.repoLock(key)
	l.RLock()
	defer l.RUnlock()

	hash, head, ok, err := b.HeadState()
	switch {
	case err != nil:
		slog.Warn("cannot read HEAD", slog.String("repository", key), slog.Any("error", err))
	case ok:
		st.CurrentBranch = &head
		if c, err := b.ResolveCommit(hash); err == nil {
			short := shortHash(c.Hash)
			when := c.Committer.When
			st.LastCommitHash = &short
			st.LastCommitAt = &when
		}
	}

	changes, err := b.LocalChangesStatus()
	if err != nil {
		slog.Warn("cannot read working tree status", slog.String("repository", key), slog.Any("error", err))
	} else {
		st.HasUncommittedChanges = changes.HasWorktree || changes.HasStaged
		st.HasUntrackedFiles = changes.HasUntracked
		st.IsClean = !changes.Dirty()
	}

	url, err := b.RemoteURL(s.opts.Remote)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("cannot read remote url", slog.String("repository", key), slog.Any("error", err))
	}
	if url != "" {
		st.RemoteURL = &url
	}
	return st
}
