package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	diff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

func (n *native) treeAt(rev string) (*object.Tree, error) {
	c, err := n.commitObject(rev)
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", rev, err)
	}
	return tree, nil
}

func (n *native) DiffTrees(ctx context.Context, baseHash, targetHash string) ([]Change, error) {
	baseTree, err := n.treeAt(baseHash)
	if err != nil {
		return nil, err
	}
	targetTree, err := n.treeAt(targetHash)
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTreeWithOptions(ctx, baseTree, targetTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	out := make([]Change, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("classify change: %w", err)
		}
		entry := Change{FromPath: ch.From.Name, ToPath: ch.To.Name}
		switch action {
		case merkletrie.Insert:
			entry.Action = ActionInsert
		case merkletrie.Delete:
			entry.Action = ActionDelete
		default:
			entry.Action = ActionModify
			if ch.From.Name != ch.To.Name {
				entry.Action = ActionRename
			}
		}
		patch, err := ch.PatchContext(ctx)
		if err != nil {
			// Leave Patch empty; callers fall back to estimated counts.
			slog.Debug("patch generation failed", slog.String("path", entry.Path()), slog.Any("error", err))
			out = append(out, entry)
			continue
		}
		for _, fp := range patch.FilePatches() {
			if fp.IsBinary() {
				entry.Binary = true
			}
		}
		if !entry.Binary {
			text, err := encodeUnifiedPatch(patch.FilePatches())
			if err != nil {
				slog.Debug("patch encoding failed", slog.String("path", entry.Path()), slog.Any("error", err))
			} else {
				entry.Patch = text
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func encodeUnifiedPatch(filePatches []diff.FilePatch) (string, error) {
	var buf bytes.Buffer
	enc := diff.NewUnifiedEncoder(&buf, diff.DefaultContextLines)
	if err := enc.Encode(filePatchSet{patches: filePatches}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type filePatchSet struct {
	patches []diff.FilePatch
}

func (f filePatchSet) FilePatches() []diff.FilePatch { return f.patches }
func (filePatchSet) Message() string                 { return "" }

func (n *native) ReadBlob(rev, filePath string) ([]byte, bool, error) {
	tree, err := n.treeAt(rev)
	if err != nil {
		return nil, false, err
	}
	f, err := tree.File(filePath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s at %s: %w", filePath, rev, err)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, false, fmt.Errorf("read %s at %s: %w", filePath, rev, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("read %s at %s: %w", filePath, rev, err)
	}
	return data, true, nil
}

func (n *native) BlobDiffText(oldPath, newPath string, oldData, newData []byte) (string, error) {
	return unifiedBlobDiff(oldPath, newPath, oldData, newData)
}

func (n *native) ReadTree(rev, dir string) ([]TreeEntry, error) {
	tree, err := n.treeAt(rev)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		tree, err = tree.Tree(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %s at %s: %w", dir, rev, err)
		}
	}
	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entry := TreeEntry{Name: e.Name, Path: path.Join(dir, e.Name)}
		switch e.Mode {
		case filemode.Dir:
			entry.Dir = true
		case filemode.Submodule:
			// Gitlinks point at commits of another repository; they have no blob.
		default:
			size, err := n.repo.Storer.EncodedObjectSize(e.Hash)
			if err != nil {
				return nil, fmt.Errorf("size of %s: %w", entry.Path, err)
			}
			entry.Size = size
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
