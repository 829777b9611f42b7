package git

import (
	"context"
	"fmt"
	"strings"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// Compare summarizes the files changed between base and target. An empty
// base uses the configured base branch.
func (s *Service) Compare(ctx context.Context, key, target, base string) (Comparison, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return Comparison{}, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()
	return s.compareLocked(ctx, slot, b, target, base)
}

func (s *Service) compareLocked(ctx context.Context, slot RepositorySlot, b gitbackend.Backend, target, base string) (Comparison, error) {
	if strings.TrimSpace(base) == "" {
		base = s.opts.BaseBranch
	}
	baseCommit, err := s.resolveRef(b, base)
	if err != nil {
		return Comparison{}, err
	}
	targetCommit, err := s.resolveRef(b, target)
	if err != nil {
		return Comparison{}, err
	}
	changes, err := b.DiffTrees(ctx, baseCommit.Hash, targetCommit.Hash)
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: %s..%s: %v", ErrDiffGenerationFailed, base, target, err)
	}

	cmp := Comparison{
		BranchName:    target,
		BaseBranch:    base,
		RepositoryKey: slot.Key,
		Files:         make([]FileChange, 0, len(changes)),
	}
	for _, ch := range changes {
		fc := fileChangeFrom(ch)
		cmp.TotalAdditions += fc.Additions
		cmp.TotalDeletions += fc.Deletions
		cmp.Files = append(cmp.Files, fc)
	}
	cmp.TotalFiles = len(cmp.Files)
	cmp.Summary = comparisonSummary(cmp.TotalFiles, cmp.TotalAdditions, cmp.TotalDeletions)
	return cmp, nil
}

func fileChangeFrom(ch gitbackend.Change) FileChange {
	fc := FileChange{Path: ch.Path(), Binary: ch.Binary}
	switch ch.Action {
	case gitbackend.ActionInsert:
		fc.ChangeType = ChangeAdded
	case gitbackend.ActionDelete:
		fc.ChangeType = ChangeDeleted
	case gitbackend.ActionRename:
		fc.ChangeType = ChangeRenamed
		old := ch.FromPath
		fc.OldPath = &old
	default:
		fc.ChangeType = ChangeModified
	}
	if ch.Patch == "" && (ch.Binary || ch.Action != gitbackend.ActionRename) {
		fc.Additions, fc.Deletions = estimatedCounts(fc.ChangeType)
		fc.Estimated = true
		return fc
	}
	fc.Additions, fc.Deletions = CountChanges(ch.Patch)
	return fc
}

// estimatedCounts is the placeholder used when no patch text exists. It is
// never zero so callers can still tell something changed.
func estimatedCounts(t ChangeType) (additions, deletions int) {
	switch t {
	case ChangeAdded:
		return 1, 0
	case ChangeDeleted:
		return 0, 1
	default:
		return 1, 1
	}
}

func comparisonSummary(files, additions, deletions int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d files changed", files)
	if additions > 0 {
		fmt.Fprintf(&sb, ", %d insertions(+)", additions)
	}
	if deletions > 0 {
		fmt.Fprintf(&sb, ", %d deletions(-)", deletions)
	}
	return sb.String()
}
