package git

import "errors"

var (
	ErrRepoNotFound           = errors.New("repository not found")
	ErrInvalidRepositoryKey   = errors.New("invalid repository key")
	ErrNotAVersionControlRepo = errors.New("not a git repository")
	ErrBranchNotFound         = errors.New("branch not found")
	ErrDirtyWorkingTree       = errors.New("working tree has uncommitted changes")
	ErrCheckoutFailed         = errors.New("checkout failed")
	ErrDiffGenerationFailed   = errors.New("diff generation failed")
	ErrBinaryOrUndecodable    = errors.New("binary or undecodable content")
	ErrRemoteFetchFailed      = errors.New("remote fetch failed")
	ErrPathNotFound           = errors.New("path not found")
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrRepoNotFound, "RepoNotFound"},
	{ErrInvalidRepositoryKey, "InvalidRepositoryKey"},
	{ErrNotAVersionControlRepo, "NotAVersionControlRepo"},
	{ErrBranchNotFound, "BranchNotFound"},
	{ErrDirtyWorkingTree, "DirtyWorkingTree"},
	{ErrCheckoutFailed, "CheckoutFailed"},
	{ErrDiffGenerationFailed, "DiffGenerationFailed"},
	{ErrBinaryOrUndecodable, "BinaryOrUndecodableContent"},
	{ErrRemoteFetchFailed, "RemoteFetchFailed"},
	{ErrPathNotFound, "PathNotFound"},
}

// ErrorKind names the taxonomy entry err belongs to. It returns "" for nil
// and "Internal" for errors outside the taxonomy.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
