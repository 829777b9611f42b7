// Package watch re-lists recent branches whenever the refs of a watched
// repository change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitk-review/internal/debounce"
	"github.com/thiagokokada/gitk-review/internal/git"
)

const DefaultDelay = 350 * time.Millisecond

type Lister interface {
	ListRecentBranches(ctx context.Context, key string, limit int) ([]git.BranchRef, error)
}

// UpdateFunc receives every listing produced by the watcher, including the
// initial one.
type UpdateFunc func(branches []git.BranchRef, err error)

type Watcher struct {
	lister   Lister
	key      string
	limit    int
	remote   string
	slots    []git.RepositorySlot
	delay    time.Duration
	onUpdate UpdateFunc
}

type Option func(*Watcher)

func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

func WithRemote(remote string) Option {
	return func(w *Watcher) { w.remote = remote }
}

func New(lister Lister, key string, limit int, slots []git.RepositorySlot, onUpdate UpdateFunc, opts ...Option) *Watcher {
	w := &Watcher{
		lister:   lister,
		key:      key,
		limit:    limit,
		remote:   git.DefaultRemote,
		slots:    slots,
		delay:    DefaultDelay,
		onUpdate: onUpdate,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run lists once, then again after each burst of ref changes, until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.slots) == 0 {
		return errors.New("watch: no repositories to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
	}()
	for _, slot := range w.slots {
		for _, path := range slices.Sorted(watchPaths(slot.Root, w.remote)) {
			slog.Debug("adding path to FS watcher", slog.String("repo", slot.Key), slog.String("path", path))
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
	}

	pending := make(chan struct{}, 1)
	d := debounce.New(w.delay, func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	defer d.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			d.Trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		case <-pending:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	slog.Debug("refreshing branch listing", slog.String("repo", w.key))
	branches, err := w.lister.ListRecentBranches(ctx, w.key, w.limit)
	if ctx.Err() != nil {
		return
	}
	if w.onUpdate != nil {
		w.onUpdate(branches, err)
	}
}

// watchPaths returns the directories whose entries change when branches
// move: the git dir itself (HEAD, packed-refs) plus the local and
// remote-tracking ref directories when present. A root without a .git
// directory is watched as is.
func watchPaths(root, remote string) iter.Seq[string] {
	uniquePaths := map[string]struct{}{}
	if root == "" {
		return maps.Keys(uniquePaths)
	}
	appendUnique := func(p string) { uniquePaths[p] = struct{}{} }
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		appendUnique(root)
		return maps.Keys(uniquePaths)
	}
	appendUnique(gitDir)
	candidates := []string{filepath.Join(gitDir, "refs", "heads")}
	if remote != "" {
		candidates = append(candidates, filepath.Join(gitDir, "refs", "remotes", remote))
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			appendUnique(dir)
		}
	}
	return maps.Keys(uniquePaths)
}

// FETCH_HEAD is rewritten by every fetch, including the one a refresh runs.
func shouldIgnoreWatchPath(name string) bool {
	base := filepath.Base(name)
	if base == "FETCH_HEAD" || base == "index" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
