package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// FileDiff renders the line-level diff of path between base and target.
// When path is absent from base and was renamed, the old path is detected
// from the tree diff.
func (s *Service) FileDiff(ctx context.Context, key, target, base, path string) (FileDiff, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return FileDiff{}, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	baseHash, targetHash, err := s.resolvePair(b, target, base)
	if err != nil {
		return FileDiff{}, err
	}
	oldPath, err := renamedFrom(ctx, b, baseHash, targetHash, path)
	if err != nil {
		return FileDiff{}, err
	}
	return buildFileDiff(b, baseHash, targetHash, oldPath, path)
}

// FileDiffs renders several files at once. A file whose diff fails is
// reported as a ChangeError entry carrying the error in a single header line.
func (s *Service) FileDiffs(ctx context.Context, key, target, base string, paths []string) ([]FileDiff, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return nil, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	baseHash, targetHash, err := s.resolvePair(b, target, base)
	if err != nil {
		return nil, err
	}
	out := make([]FileDiff, 0, len(paths))
	for _, p := range paths {
		oldPath, err := renamedFrom(ctx, b, baseHash, targetHash, p)
		if err == nil {
			var fd FileDiff
			fd, err = buildFileDiff(b, baseHash, targetHash, oldPath, p)
			if err == nil {
				out = append(out, fd)
				continue
			}
		}
		slog.Warn("file diff failed", slog.String("path", p), slog.Any("error", err))
		out = append(out, errorFileDiff(p, err))
	}
	return out, nil
}

func errorFileDiff(path string, err error) FileDiff {
	return FileDiff{
		Path:       path,
		Lines:      []DiffLine{{Content: "Error loading diff: " + err.Error(), Kind: LineHeader}},
		ChangeType: ChangeError,
	}
}

func (s *Service) resolvePair(b gitbackend.Backend, target, base string) (baseHash, targetHash string, err error) {
	if base == "" {
		base = s.opts.BaseBranch
	}
	bc, err := s.resolveRef(b, base)
	if err != nil {
		return "", "", err
	}
	tc, err := s.resolveRef(b, target)
	if err != nil {
		return "", "", err
	}
	return bc.Hash, tc.Hash, nil
}

// renamedFrom returns the base-side path of path. It is path itself unless
// path is missing from base and the tree diff reports a rename onto it.
func renamedFrom(ctx context.Context, b gitbackend.Backend, baseHash, targetHash, path string) (string, error) {
	_, inBase, err := b.ReadBlob(baseHash, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiffGenerationFailed, err)
	}
	if inBase {
		return path, nil
	}
	changes, err := b.DiffTrees(ctx, baseHash, targetHash)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiffGenerationFailed, err)
	}
	for _, ch := range changes {
		if ch.Action == gitbackend.ActionRename && ch.ToPath == path {
			return ch.FromPath, nil
		}
	}
	return path, nil
}

// buildFileDiff reads both sides of a file and parses their unified diff.
// Binary or non UTF-8 sides are replaced with BinarySentinel and no lines
// are produced.
func buildFileDiff(b gitbackend.Backend, baseHash, targetHash, oldPath, newPath string) (FileDiff, error) {
	oldData, oldOK, err := b.ReadBlob(baseHash, oldPath)
	if err != nil {
		return FileDiff{}, fmt.Errorf("%w: read %s: %v", ErrDiffGenerationFailed, oldPath, err)
	}
	newData, newOK, err := b.ReadBlob(targetHash, newPath)
	if err != nil {
		return FileDiff{}, fmt.Errorf("%w: read %s: %v", ErrDiffGenerationFailed, newPath, err)
	}
	if !oldOK && !newOK {
		return FileDiff{}, fmt.Errorf("%w: %s exists in neither revision", ErrDiffGenerationFailed, newPath)
	}

	fd := FileDiff{Path: newPath, Lines: []DiffLine{}, Language: LanguageForPath(newPath)}
	switch {
	case !oldOK:
		fd.ChangeType = ChangeAdded
	case !newOK:
		fd.ChangeType = ChangeDeleted
	case oldPath != newPath:
		fd.ChangeType = ChangeRenamed
		fd.OldPath = oldPath
	case bytes.Equal(oldData, newData):
		fd.ChangeType = ChangeUnchanged
	default:
		fd.ChangeType = ChangeModified
	}

	oldText, oldBinary := decodeBlob(oldData)
	newText, newBinary := decodeBlob(newData)
	fd.OldContent, fd.NewContent = oldText, newText
	if oldBinary || newBinary {
		fd.Binary = true
		slog.Debug("binary content replaced with sentinel",
			slog.String("path", newPath),
			slog.Any("error", ErrBinaryOrUndecodable))
		return fd, nil
	}

	fromPath, toPath := oldPath, newPath
	if !oldOK {
		fromPath = ""
	}
	if !newOK {
		toPath = ""
	}
	text, err := b.BlobDiffText(fromPath, toPath, oldData, newData)
	if err != nil {
		return FileDiff{}, fmt.Errorf("%w: %s: %v", ErrDiffGenerationFailed, newPath, err)
	}
	fd.Lines = ParseUnifiedDiff(text)
	return fd, nil
}

// decodeBlob returns data as text, or BinarySentinel when it holds NUL bytes
// or is not valid UTF-8.
func decodeBlob(data []byte) (string, bool) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return BinarySentinel, true
	}
	return string(data), false
}

// LanguageForPath returns the chroma lexer name for path, or "" when no
// lexer matches.
func LanguageForPath(path string) string {
	if path == "" {
		return ""
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		return ""
	}
	return chroma.Coalesce(lexer).Config().Name
}
