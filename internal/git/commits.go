package git

import (
	"context"
	"fmt"
	"slices"
)

// branchDetailsSearch bounds how many recent branches BranchDetails scans.
const branchDetailsSearch = 50

// BranchCommits returns up to limit commits reachable from branch, newest
// first. limit <= 0 uses the branch limit.
func (s *Service) BranchCommits(ctx context.Context, key, branch string, limit int) ([]CommitSummary, error) {
	if limit <= 0 {
		limit = s.opts.BranchLimit
	}
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return nil, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	c, err := s.resolveRef(b, branch)
	if err != nil {
		return nil, err
	}
	commits, err := b.Log(c.Hash, limit)
	if err != nil {
		return nil, fmt.Errorf("read history of %s: %w", branch, err)
	}
	out := make([]CommitSummary, 0, len(commits))
	for _, commit := range commits {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		author, email := authorOf(commit.Author)
		out = append(out, CommitSummary{
			Hash:        commit.Hash,
			ShortHash:   shortHash(commit.Hash),
			Author:      author,
			AuthorEmail: email,
			Message:     summaryLine(commit.Message),
			CommittedAt: commit.Committer.When,
		})
	}
	return out, nil
}

// BranchDetails finds branch among the most recent branches of key and
// compares it with the base branch.
func (s *Service) BranchDetails(ctx context.Context, key, branch string) (BranchDetails, error) {
	refs, err := s.ListRecentBranches(ctx, key, branchDetailsSearch)
	if err != nil {
		return BranchDetails{}, err
	}
	name := s.stripRemote(branch)
	idx := slices.IndexFunc(refs, func(r BranchRef) bool { return r.DisplayName == name })
	if idx < 0 {
		return BranchDetails{}, fmt.Errorf("%w: %s is not among the %d most recent branches", ErrBranchNotFound, name, branchDetailsSearch)
	}
	cmp, err := s.Compare(ctx, key, refs[idx].FullName, "")
	if err != nil {
		return BranchDetails{}, err
	}
	return BranchDetails{Branch: refs[idx], Comparison: cmp}, nil
}

// FileContent returns the text of path at rev, or BinarySentinel for binary
// or non UTF-8 files.
func (s *Service) FileContent(ctx context.Context, key, rev, path string) (string, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return "", err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	c, err := s.resolveRef(b, rev)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, ok, err := b.ReadBlob(c.Hash, path)
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s does not exist at %s", ErrPathNotFound, path, rev)
	}
	text, _ := decodeBlob(data)
	return text, nil
}
