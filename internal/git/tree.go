package git

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

// BuildTree lists the files and directories of ref recursively. Directories
// sort before files, then entries sort by name. Blob contents are never read.
func (s *Service) BuildTree(ctx context.Context, key, ref string) (FileTree, error) {
	slot, b, err := s.resolveBackend(key)
	if err != nil {
		return FileTree{}, err
	}
	l := s.repoLock(slot.Key)
	l.RLock()
	defer l.RUnlock()

	c, err := s.resolveRef(b, ref)
	if err != nil {
		return FileTree{}, err
	}
	nodes, err := walkTree(ctx, b, c.Hash, "")
	if err != nil {
		return FileTree{}, err
	}
	return FileTree{
		Branch:        ref,
		RepositoryKey: slot.Key,
		Commit:        shortHash(c.Hash),
		Tree:          nodes,
	}, nil
}

func walkTree(ctx context.Context, b gitbackend.Backend, rev, dir string) ([]TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := b.ReadTree(rev, dir)
	if err != nil {
		return nil, fmt.Errorf("read tree %q: %w", dir, err)
	}
	nodes := make([]TreeNode, 0, len(entries))
	for _, e := range entries {
		node := TreeNode{Name: e.Name, Path: e.Path}
		if e.Dir {
			node.Kind = NodeDirectory
			children, err := walkTree(ctx, b, rev, e.Path)
			if err != nil {
				return nil, err
			}
			node.Children = children
		} else {
			node.Kind = NodeFile
			size := e.Size
			node.Size = &size
		}
		nodes = append(nodes, node)
	}
	slices.SortFunc(nodes, func(a, b TreeNode) int {
		if a.Kind != b.Kind {
			if a.Kind == NodeDirectory {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return nodes, nil
}
