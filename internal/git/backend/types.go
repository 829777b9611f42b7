package backend

import "time"

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

type LocalChanges struct {
	HasWorktree  bool
	HasStaged    bool
	HasUntracked bool
}

// Dirty reports whether any tracked or untracked change is present.
func (c LocalChanges) Dirty() bool {
	return c.HasWorktree || c.HasStaged || c.HasUntracked
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

type Ref struct {
	Hash string
	Kind RefKind
	Name string // short name: main, origin/main, v1
}

type ChangeAction uint8

const (
	ActionModify ChangeAction = iota
	ActionInsert
	ActionDelete
	ActionRename
)

// Change is one file-level entry of a tree diff.
type Change struct {
	FromPath string
	ToPath   string
	Action   ChangeAction
	Binary   bool
	// Patch is the unified diff text for this file only. Empty for binary
	// entries or when no patch could be produced.
	Patch string
}

// Path returns the path that best identifies the change.
func (c Change) Path() string {
	if c.ToPath != "" {
		return c.ToPath
	}
	return c.FromPath
}

type TreeEntry struct {
	Name string
	Path string
	Dir  bool
	Size int64
}
