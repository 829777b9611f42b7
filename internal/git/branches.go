package git

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/iter"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// ListRecentBranches returns the most recently committed remote-tracking
// branches of key, or of every repository when key is BothRepositories.
// limit applies per repository; limit <= 0 uses the configured default.
func (s *Service) ListRecentBranches(ctx context.Context, key string, limit int) ([]BranchRef, error) {
	if limit <= 0 {
		limit = s.opts.BranchLimit
	}
	slots, skipped, err := s.resolver.Expand(key)
	if err != nil {
		return nil, err
	}
	for k, err := range skipped {
		slog.Warn("repository unavailable, skipping", slog.String("repository", k), slog.Any("error", err))
	}
	if key != BothRepositories {
		return s.listSlot(ctx, slots[0], limit)
	}

	perSlot := iter.Map(slots, func(slot *RepositorySlot) []BranchRef {
		refs, err := s.listSlot(ctx, *slot, limit)
		if err != nil {
			slog.Error("listing branches failed", slog.String("repository", slot.Key), slog.Any("error", err))
			return nil
		}
		return refs
	})
	var merged []BranchRef
	for _, refs := range perSlot {
		merged = append(merged, refs...)
	}
	sortBranches(merged)
	return merged, nil
}

func (s *Service) listSlot(ctx context.Context, slot RepositorySlot, limit int) ([]BranchRef, error) {
	b, err := s.backendFor(slot)
	if err != nil {
		return nil, err
	}
	_ = s.refresh(ctx, slot, b)

	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	refs, err := b.ListRefs()
	if err != nil {
		return nil, fmt.Errorf("list refs of %s: %w", slot.Key, err)
	}
	prefix := s.opts.Remote + "/"
	type candidate struct {
		ref  BranchRef
		hash string
	}
	var found []candidate
	for _, ref := range refs {
		if ref.Kind != gitbackend.RefKindRemoteBranch || !strings.HasPrefix(ref.Name, prefix) {
			continue
		}
		display := strings.TrimPrefix(ref.Name, prefix)
		if isReserved(display, s.opts.ReservedNames) {
			continue
		}
		c, err := b.ResolveCommit(ref.Hash)
		if err != nil {
			slog.Warn("skipping unreadable branch", slog.String("branch", ref.Name), slog.Any("error", err))
			continue
		}
		author, email := authorOf(c.Author)
		found = append(found, candidate{hash: c.Hash, ref: BranchRef{
			FullName:      ref.Name,
			DisplayName:   display,
			Author:        author,
			AuthorEmail:   email,
			CommitHash:    shortHash(c.Hash),
			CommitMessage: summaryLine(c.Message),
			CommittedAt:   c.Committer.When,
			RepositoryKey: slot.Key,
		}})
	}
	slices.SortStableFunc(found, func(a, b candidate) int { return compareBranches(a.ref, b.ref) })
	if len(found) > limit {
		found = found[:limit]
	}

	_, headName, ok, err := b.HeadState()
	if err != nil {
		slog.Warn("cannot read HEAD", slog.String("repository", slot.Key), slog.Any("error", err))
	}
	current := ""
	if err == nil && ok && headName != "HEAD" {
		current = headName
	}

	baseHash, err := s.baseHash(b)
	if err != nil {
		slog.Debug("base branch unresolved, ahead/behind default to 0",
			slog.String("repository", slot.Key),
			slog.String("base", s.opts.BaseBranch),
			slog.Any("error", err))
	}
	branches := make([]BranchRef, 0, len(found))
	for _, cand := range found {
		br := cand.ref
		br.IsCurrent = current != "" && br.DisplayName == current
		if baseHash != "" {
			ahead, behind, err := b.AheadBehind(baseHash, cand.hash)
			if err != nil {
				slog.Warn("ahead/behind failed", slog.String("branch", br.FullName), slog.Any("error", err))
			} else {
				br.CommitsAhead, br.CommitsBehind = ahead, behind
			}
		}
		branches = append(branches, br)
	}
	return branches, nil
}

// baseHash resolves the configured base branch, preferring its remote-tracking ref.
func (s *Service) baseHash(b gitbackend.Backend) (string, error) {
	var errs []error
	for _, rev := range []string{s.opts.Remote + "/" + s.opts.BaseBranch, s.opts.BaseBranch} {
		c, err := b.ResolveCommit(rev)
		if err == nil {
			return c.Hash, nil
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

func isReserved(name string, reserved []string) bool {
	lower := strings.ToLower(name)
	for _, r := range reserved {
		if r != "" && strings.Contains(lower, strings.ToLower(r)) {
			return true
		}
	}
	return false
}

// sortBranches orders by commit time, newest first, then by full name and repository.
func sortBranches(branches []BranchRef) {
	slices.SortStableFunc(branches, compareBranches)
}

func compareBranches(a, b BranchRef) int {
	if c := b.CommittedAt.Compare(a.CommittedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FullName, b.FullName); c != 0 {
		return c
	}
	return cmp.Compare(a.RepositoryKey, b.RepositoryKey)
}
