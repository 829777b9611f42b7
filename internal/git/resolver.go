package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// BothRepositories selects every configured repository in multi-repository operations.
const BothRepositories = "both"

// DefaultRepositories maps the logical repository keys to their workspace folders.
func DefaultRepositories() map[string]string {
	return map[string]string{
		"content":    "outputs-dimensions-content",
		"dimensions": "outputs-dimensions",
	}
}

// Resolver maps repository keys to repository roots inside a workspace.
type Resolver struct {
	workspace string
	folders   map[string]string
}

// NewResolver returns a resolver for workspace. A nil or empty folders map
// uses DefaultRepositories.
func NewResolver(workspace string, folders map[string]string) *Resolver {
	if len(folders) == 0 {
		folders = DefaultRepositories()
	}
	copied := make(map[string]string, len(folders))
	for k, v := range folders {
		copied[k] = v
	}
	return &Resolver{workspace: workspace, folders: copied}
}

func (r *Resolver) Workspace() string { return r.workspace }

// Keys lists the configured repository keys in sorted order.
func (r *Resolver) Keys() []string {
	keys := make([]string, 0, len(r.folders))
	for k := range r.folders {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Path returns the expected root of key without checking the filesystem.
func (r *Resolver) Path(key string) (string, error) {
	folder, ok := r.folders[key]
	if !ok {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidRepositoryKey, key, strings.Join(r.Keys(), ", "))
	}
	return filepath.Join(r.workspace, folder), nil
}

// Resolve validates that key names an existing git repository.
func (r *Resolver) Resolve(key string) (RepositorySlot, error) {
	root, err := r.Path(key)
	if err != nil {
		return RepositorySlot{}, err
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RepositorySlot{}, fmt.Errorf("%w: %s", ErrRepoNotFound, root)
		}
		return RepositorySlot{}, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return RepositorySlot{}, fmt.Errorf("%w: %s is not a directory", ErrRepoNotFound, root)
	}
	// .git is a directory in normal clones and a file in linked worktrees.
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RepositorySlot{}, fmt.Errorf("%w: %s", ErrNotAVersionControlRepo, root)
		}
		return RepositorySlot{}, fmt.Errorf("stat %s: %w", root, err)
	}
	return RepositorySlot{Key: key, Root: root}, nil
}

// Expand returns the slots a multi-repository request visits. BothRepositories
// expands to every configured key; unavailable repositories are skipped and
// reported through skipped.
func (r *Resolver) Expand(key string) (slots []RepositorySlot, skipped map[string]error, err error) {
	keys := []string{key}
	if key == BothRepositories {
		keys = r.Keys()
	} else if _, ok := r.folders[key]; !ok {
		_, err := r.Path(key)
		return nil, nil, err
	}
	skipped = make(map[string]error)
	for _, k := range keys {
		slot, err := r.Resolve(k)
		if err != nil {
			if key != BothRepositories {
				return nil, nil, err
			}
			skipped[k] = err
			continue
		}
		slots = append(slots, slot)
	}
	return slots, skipped, nil
}
