package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

const (
	DefaultRemote          = "origin"
	DefaultBaseBranch      = "master"
	DefaultBranchLimit     = 15
	DefaultDetailThreshold = 50
	DefaultFetchTimeout    = 30 * time.Second
)

// DefaultReservedNames lists integration branches that are never review candidates.
func DefaultReservedNames() []string {
	return []string{"HEAD", "develop", "release", "main", "master"}
}

type Options struct {
	Remote          string
	BaseBranch      string
	BranchLimit     int
	DetailThreshold int
	// Fetch enables the best-effort remote refresh before listing and checkout.
	Fetch         bool
	FetchTimeout  time.Duration
	ReservedNames []string
}

func DefaultOptions() Options {
	return Options{
		Remote:          DefaultRemote,
		BaseBranch:      DefaultBaseBranch,
		BranchLimit:     DefaultBranchLimit,
		DetailThreshold: DefaultDetailThreshold,
		Fetch:           true,
		FetchTimeout:    DefaultFetchTimeout,
		ReservedNames:   DefaultReservedNames(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Remote == "" {
		o.Remote = d.Remote
	}
	if o.BaseBranch == "" {
		o.BaseBranch = d.BaseBranch
	}
	if o.BranchLimit <= 0 {
		o.BranchLimit = d.BranchLimit
	}
	if o.DetailThreshold <= 0 {
		o.DetailThreshold = d.DetailThreshold
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.ReservedNames == nil {
		o.ReservedNames = d.ReservedNames
	}
	return o
}

// Service runs review operations against the repositories of one workspace.
type Service struct {
	resolver *Resolver
	open     gitbackend.Opener
	opts     Options

	// mu guards locks and backends.
	mu       sync.Mutex
	locks    map[string]*sync.RWMutex
	backends map[string]gitbackend.Backend
}

func New(resolver *Resolver, open gitbackend.Opener, opts Options) *Service {
	if open == nil {
		open = gitbackend.OpenNative
	}
	return &Service{
		resolver: resolver,
		open:     open,
		opts:     opts.withDefaults(),
		locks:    make(map[string]*sync.RWMutex),
		backends: make(map[string]gitbackend.Backend),
	}
}

func (s *Service) Resolver() *Resolver { return s.resolver }

func (s *Service) Options() Options { return s.opts }

// repoLock returns the lock serializing writers of one repository slot.
// Checkout and fetch hold it exclusively; reads share it.
func (s *Service) repoLock(key string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Service) backendFor(slot RepositorySlot) (gitbackend.Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.backends[slot.Key]; ok && b.RepoPath() != "" {
		return b, nil
	}
	b, err := s.open(slot.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAVersionControlRepo, slot.Root, err)
	}
	s.backends[slot.Key] = b
	return b, nil
}

// resolveBackend resolves key and opens its repository.
func (s *Service) resolveBackend(key string) (RepositorySlot, gitbackend.Backend, error) {
	slot, err := s.resolver.Resolve(key)
	if err != nil {
		return RepositorySlot{}, nil, err
	}
	b, err := s.backendFor(slot)
	if err != nil {
		return RepositorySlot{}, nil, err
	}
	return slot, b, nil
}

// refresh fetches the configured remote under the slot's write lock when
// automatic refresh is enabled.
func (s *Service) refresh(ctx context.Context, slot RepositorySlot, b gitbackend.Backend) error {
	if !s.opts.Fetch {
		return nil
	}
	return s.fetchSlot(ctx, slot, b)
}

func (s *Service) fetchSlot(ctx context.Context, slot RepositorySlot, b gitbackend.Backend) error {
	l := s.repoLock(slot.Key)
	l.Lock()
	defer l.Unlock()
	return s.fetchLocked(ctx, slot, b)
}

// refreshLocked is refresh for callers already holding the write lock.
func (s *Service) refreshLocked(ctx context.Context, slot RepositorySlot, b gitbackend.Backend) error {
	if !s.opts.Fetch {
		return nil
	}
	return s.fetchLocked(ctx, slot, b)
}

// fetchLocked fetches with a bounded timeout. Failures are logged and
// returned wrapped in ErrRemoteFetchFailed; callers treat them as non-fatal.
func (s *Service) fetchLocked(ctx context.Context, slot RepositorySlot, b gitbackend.Backend) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	start := time.Now()
	if err := b.Fetch(ctx, s.opts.Remote); err != nil {
		slog.Warn("remote refresh failed, using last known refs",
			slog.String("repository", slot.Key),
			slog.String("remote", s.opts.Remote),
			slog.Any("error", err))
		return fmt.Errorf("%w: %s: %v", ErrRemoteFetchFailed, slot.Key, err)
	}
	slog.Debug("remote refreshed",
		slog.String("repository", slot.Key),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// resolveRef finds the commit a user supplied branch or revision names:
// the remote-tracking ref first, then a local branch, then the raw revision.
func (s *Service) resolveRef(b gitbackend.Backend, name string) (*gitbackend.Commit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrBranchNotFound)
	}
	candidates := []string{name}
	if !strings.HasPrefix(name, s.opts.Remote+"/") {
		candidates = []string{s.opts.Remote + "/" + name, name}
	}
	for _, rev := range candidates {
		c, err := b.ResolveCommit(rev)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, gitbackend.ErrRevisionNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
}

// stripRemote removes the configured remote prefix from a branch name.
func (s *Service) stripRemote(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), s.opts.Remote+"/")
}

const (
	shortHashLen     = 8
	maxMessageLen    = 100
	noCommitMessage  = "No commit message"
	unknownAuthor    = "Unknown"
	unknownAuthorSig = "unknown@unknown.com"
)

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}

// summaryLine returns the first line of a commit message, capped at 100 characters.
func summaryLine(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return noCommitMessage
	}
	if r := []rune(line); len(r) > maxMessageLen {
		return string(r[:maxMessageLen])
	}
	return line
}

func authorOf(sig gitbackend.Signature) (name, email string) {
	name, email = strings.TrimSpace(sig.Name), strings.TrimSpace(sig.Email)
	if name == "" {
		name = unknownAuthor
	}
	if email == "" {
		email = unknownAuthorSig
	}
	return name, email
}
