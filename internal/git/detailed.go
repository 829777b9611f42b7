package git

import (
	"context"
	"log/slog"
)

// DetailedCompare runs Compare and attaches full line diffs to every
// non-binary file with fewer changed lines than the detail threshold.
// Larger files, binaries and files whose diff fails are listed in
// SummaryFiles only.
func (s *Service) DetailedCompare(ctx context.Context, key, target, base string) (DetailedComparison, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return DetailedComparison{}, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	cmp, err := s.compareLocked(ctx, slot, b, target, base)
	if err != nil {
		return DetailedComparison{}, err
	}
	baseHash, targetHash, err := s.resolvePair(b, target, cmp.BaseBranch)
	if err != nil {
		return DetailedComparison{}, err
	}

	out := DetailedComparison{
		Comparison:    cmp,
		DetailedFiles: []DetailedFile{},
		SummaryFiles:  []FileChange{},
	}
	for _, fc := range cmp.Files {
		if fc.Binary || fc.Additions+fc.Deletions >= s.opts.DetailThreshold {
			out.SummaryFiles = append(out.SummaryFiles, fc)
			continue
		}
		oldPath := fc.Path
		if fc.OldPath != nil {
			oldPath = *fc.OldPath
		}
		fd, err := buildFileDiff(b, baseHash, targetHash, oldPath, fc.Path)
		if err != nil || fd.Binary {
			if err != nil {
				slog.Warn("demoting file to summary", slog.String("path", fc.Path), slog.Any("error", err))
			}
			out.SummaryFiles = append(out.SummaryFiles, fc)
			continue
		}
		out.DetailedFiles = append(out.DetailedFiles, DetailedFile{FileInfo: fc, Diff: fd})
	}
	out.TotalDetailed = len(out.DetailedFiles)
	out.TotalSummary = len(out.SummaryFiles)
	out.HasLargeFiles = out.TotalSummary > 0
	return out, nil
}
