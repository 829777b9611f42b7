package git

import (
	"fmt"
	"time"
)

// RepositorySlot is a resolved repository inside the workspace.
type RepositorySlot struct {
	Key  string `json:"key"`
	Root string `json:"rootPath"`
}

type BranchRef struct {
	FullName      string    `json:"fullName"`
	DisplayName   string    `json:"displayName"`
	Author        string    `json:"author"`
	AuthorEmail   string    `json:"authorEmail"`
	CommitHash    string    `json:"commitHash"`
	CommitMessage string    `json:"commitMessage"`
	CommittedAt   time.Time `json:"committedAt"`
	RepositoryKey string    `json:"repositoryKey"`
	IsCurrent     bool      `json:"isCurrent"`
	CommitsAhead  int       `json:"commitsAhead"`
	CommitsBehind int       `json:"commitsBehind"`
}

type ChangeType uint8

const (
	ChangeAdded ChangeType = iota + 1
	ChangeDeleted
	ChangeModified
	ChangeRenamed
	// ChangeUnchanged is only reported by FileDiff when both sides are identical.
	ChangeUnchanged
	// ChangeError marks a placeholder FileDiff for a path whose diff failed in a batch.
	ChangeError
)

var changeTypeNames = map[ChangeType]string{
	ChangeAdded:     "added",
	ChangeDeleted:   "deleted",
	ChangeModified:  "modified",
	ChangeRenamed:   "renamed",
	ChangeUnchanged: "unchanged",
	ChangeError:     "error",
}

func (c ChangeType) String() string {
	if name, ok := changeTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ChangeType(%d)", uint8(c))
}

func (c ChangeType) MarshalText() ([]byte, error) {
	name, ok := changeTypeNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown change type %d", uint8(c))
	}
	return []byte(name), nil
}

func (c *ChangeType) UnmarshalText(text []byte) error {
	for k, name := range changeTypeNames {
		if name == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown change type %q", text)
}

type FileChange struct {
	Path       string     `json:"path"`
	ChangeType ChangeType `json:"changeType"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	OldPath    *string    `json:"oldPath"`
	Binary     bool       `json:"binary"`
	// Estimated marks placeholder counts used when no patch text was available.
	Estimated bool `json:"estimated"`
}

type LineKind uint8

const (
	LineHeader LineKind = iota + 1
	LineAdded
	LineDeleted
	LineContext
)

var lineKindNames = map[LineKind]string{
	LineHeader:  "header",
	LineAdded:   "added",
	LineDeleted: "deleted",
	LineContext: "context",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LineKind(%d)", uint8(k))
}

func (k LineKind) MarshalText() ([]byte, error) {
	name, ok := lineKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown line kind %d", uint8(k))
	}
	return []byte(name), nil
}

func (k *LineKind) UnmarshalText(text []byte) error {
	for v, name := range lineKindNames {
		if name == string(text) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", text)
}

// DiffLine is one classified line of a unified diff. Nil line numbers are
// serialized as null, never as 0.
type DiffLine struct {
	OldLineNumber *int     `json:"oldLineNumber"`
	NewLineNumber *int     `json:"newLineNumber"`
	Content       string   `json:"content"`
	Kind          LineKind `json:"type"`
}

// BinarySentinel replaces blob content that is binary or not valid UTF-8.
const BinarySentinel = "[Binary file or encoding error]"

type FileDiff struct {
	Path       string     `json:"path"`
	OldPath    string     `json:"oldPath,omitempty"`
	OldContent string     `json:"oldContent"`
	NewContent string     `json:"newContent"`
	Lines      []DiffLine `json:"lines"`
	ChangeType ChangeType `json:"changeType"`
	Binary     bool       `json:"binary"`
	Language   string     `json:"language,omitempty"`
}

type CheckoutResult struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	CurrentBranch  string  `json:"currentBranch"`
	PreviousBranch *string `json:"previousBranch"`
	RepositoryKey  string  `json:"repositoryKey"`
	ErrorKind      string  `json:"errorKind,omitempty"`
}

type RepositoryStatus struct {
	Exists                bool       `json:"exists"`
	IsVersionControlled   bool       `json:"isVersionControlled"`
	CurrentBranch         *string    `json:"currentBranch"`
	HasUncommittedChanges bool       `json:"hasUncommittedChanges"`
	HasUntrackedFiles     bool       `json:"hasUntrackedFiles"`
	IsClean               bool       `json:"isClean"`
	LastCommitHash        *string    `json:"lastCommitHash"`
	LastCommitAt          *time.Time `json:"lastCommitAt"`
	RemoteURL             *string    `json:"remoteUrl"`
}

type Comparison struct {
	BranchName     string       `json:"branchName"`
	BaseBranch     string       `json:"baseBranch"`
	RepositoryKey  string       `json:"repositoryKey"`
	TotalFiles     int          `json:"totalFiles"`
	TotalAdditions int          `json:"totalAdditions"`
	TotalDeletions int          `json:"totalDeletions"`
	Files          []FileChange `json:"files"`
	Summary        string       `json:"summary"`
}

type DetailedFile struct {
	FileInfo FileChange `json:"fileInfo"`
	Diff     FileDiff   `json:"diff"`
}

type DetailedComparison struct {
	Comparison
	DetailedFiles []DetailedFile `json:"detailedFiles"`
	SummaryFiles  []FileChange   `json:"summaryFiles"`
	HasLargeFiles bool           `json:"hasLargeFiles"`
	TotalDetailed int            `json:"totalDetailed"`
	TotalSummary  int            `json:"totalSummary"`
}

type NodeKind uint8

const (
	NodeFile NodeKind = iota + 1
	NodeDirectory
)

func (k NodeKind) MarshalText() ([]byte, error) {
	switch k {
	case NodeFile:
		return []byte("file"), nil
	case NodeDirectory:
		return []byte("directory"), nil
	default:
		return nil, fmt.Errorf("unknown node kind %d", uint8(k))
	}
}

type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Kind     NodeKind   `json:"type"`
	Size     *int64     `json:"size,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

type FileTree struct {
	Branch        string     `json:"branch"`
	RepositoryKey string     `json:"repositoryKey"`
	Commit        string     `json:"commit"`
	Tree          []TreeNode `json:"tree"`
}

type CommitSummary struct {
	Hash        string    `json:"hash"`
	ShortHash   string    `json:"shortHash"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	Message     string    `json:"message"`
	CommittedAt time.Time `json:"committedAt"`
}

type BranchDetails struct {
	Branch     BranchRef  `json:"branch"`
	Comparison Comparison `json:"comparison"`
}

type FetchReport struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Fetched []string `json:"fetched"`
	Errors  []string `json:"errors"`
}

type WorkspaceValidation struct {
	Valid        bool            `json:"valid"`
	Message      string          `json:"message"`
	Repositories map[string]bool `json:"repositories"`
}
