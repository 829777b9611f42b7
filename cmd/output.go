package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/fatih/color"

	"github.com/thiagokokada/gitk-review/internal/git"
)

// fatih/color disables these on its own when stdout is not a terminal.
var (
	headerColor  = color.New(color.FgBlue, color.Bold)
	branchColor  = color.New(color.FgGreen, color.Bold)
	hashColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
	addedColor   = color.New(color.FgGreen)
	deletedColor = color.New(color.FgRed)
	hunkColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
)

const (
	defaultHighlightStyle = "monokai"
	timeLayout            = "2006-01-02 15:04"
)

// render writes v as JSON or runs text.
func (a *app) render(v any, text func()) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	text()
	return nil
}

type errorOutput struct {
	Error     string `json:"error"`
	ErrorKind string `json:"errorKind"`
}

func (a *app) writeError(err error) {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(errorOutput{Error: err.Error(), ErrorKind: git.ErrorKind(err)})
}

func (a *app) warn(msg string) {
	_, _ = warningColor.Fprintf(a.stderr, "! %s\n", msg)
}

func (a *app) printSection(title string) {
	_, _ = headerColor.Fprintf(a.stdout, "▸ %s\n", title)
}

func (a *app) printBranches(branches []git.BranchRef) {
	if len(branches) == 0 {
		_, _ = dimColor.Fprintln(a.stdout, "no branches")
		return
	}
	for _, b := range branches {
		marker := " "
		if b.IsCurrent {
			marker = "*"
		}
		fmt.Fprintf(a.stdout, "%s %s %s %s ↑%d ↓%d %s %s\n",
			marker,
			branchColor.Sprint(b.DisplayName),
			hashColor.Sprint(b.CommitHash),
			dimColor.Sprintf("[%s]", b.RepositoryKey),
			b.CommitsAhead,
			b.CommitsBehind,
			b.CommittedAt.Local().Format(timeLayout),
			b.Author,
		)
		fmt.Fprintf(a.stdout, "    %s\n", b.CommitMessage)
	}
}

func (a *app) printCheckout(r git.CheckoutResult) {
	if r.Success {
		_, _ = successColor.Fprintf(a.stdout, "✓ %s\n", r.Message)
		return
	}
	_, _ = errorColor.Fprintf(a.stdout, "✗ %s\n", r.Message)
	if r.ErrorKind != "" {
		_, _ = dimColor.Fprintf(a.stdout, "  (%s)\n", r.ErrorKind)
	}
}

var changeLetters = map[git.ChangeType]string{
	git.ChangeAdded:     "A",
	git.ChangeDeleted:   "D",
	git.ChangeModified:  "M",
	git.ChangeRenamed:   "R",
	git.ChangeUnchanged: "=",
	git.ChangeError:     "!",
}

func (a *app) printFileChange(f git.FileChange) {
	name := f.Path
	if f.OldPath != nil {
		name = *f.OldPath + " → " + f.Path
	}
	counts := addedColor.Sprintf("+%d", f.Additions) + " " + deletedColor.Sprintf("-%d", f.Deletions)
	switch {
	case f.Binary:
		counts = dimColor.Sprint("binary")
	case f.Estimated:
		counts += dimColor.Sprint(" (estimated)")
	}
	fmt.Fprintf(a.stdout, "  %s %s %s\n", changeLetters[f.ChangeType], name, counts)
}

func (a *app) printComparison(c git.Comparison) {
	a.printSection(fmt.Sprintf("%s vs %s [%s]", c.BranchName, c.BaseBranch, c.RepositoryKey))
	for _, f := range c.Files {
		a.printFileChange(f)
	}
	fmt.Fprintln(a.stdout, c.Summary)
}

func (a *app) printDetailedComparison(c git.DetailedComparison) {
	a.printComparison(c.Comparison)
	for _, df := range c.DetailedFiles {
		fmt.Fprintln(a.stdout)
		a.printFileDiff(df.Diff)
	}
	if c.HasLargeFiles {
		fmt.Fprintln(a.stdout)
		a.printSection(fmt.Sprintf("%d files shown as summary only", c.TotalSummary))
		for _, f := range c.SummaryFiles {
			a.printFileChange(f)
		}
	}
}

func (a *app) printFileDiff(d git.FileDiff) {
	title := fmt.Sprintf("%s (%s)", d.Path, d.ChangeType)
	if d.OldPath != "" {
		title = fmt.Sprintf("%s → %s (%s)", d.OldPath, d.Path, d.ChangeType)
	}
	a.printSection(title)
	if d.Binary {
		_, _ = dimColor.Fprintln(a.stdout, git.BinarySentinel)
		return
	}
	for _, l := range d.Lines {
		switch l.Kind {
		case git.LineHeader:
			_, _ = hunkColor.Fprintln(a.stdout, l.Content)
		case git.LineAdded:
			_, _ = addedColor.Fprintf(a.stdout, "%s %s +%s\n", lineNo(nil), lineNo(l.NewLineNumber), l.Content)
		case git.LineDeleted:
			_, _ = deletedColor.Fprintf(a.stdout, "%s %s -%s\n", lineNo(l.OldLineNumber), lineNo(nil), l.Content)
		default:
			if l.OldLineNumber == nil && l.NewLineNumber == nil {
				_, _ = dimColor.Fprintln(a.stdout, l.Content)
				continue
			}
			fmt.Fprintf(a.stdout, "%s %s  %s\n", lineNo(l.OldLineNumber), lineNo(l.NewLineNumber), l.Content)
		}
	}
}

func lineNo(n *int) string {
	if n == nil {
		return "    "
	}
	return fmt.Sprintf("%4d", *n)
}

func (a *app) printTree(t git.FileTree) {
	a.printSection(fmt.Sprintf("%s @ %s [%s]", t.Branch, t.Commit, t.RepositoryKey))
	a.printTreeNodes(t.Tree, 0)
}

func (a *app) printTreeNodes(nodes []git.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Kind == git.NodeDirectory {
			_, _ = headerColor.Fprintf(a.stdout, "%s%s/\n", indent, n.Name)
			a.printTreeNodes(n.Children, depth+1)
			continue
		}
		size := ""
		if n.Size != nil {
			size = dimColor.Sprintf(" %d B", *n.Size)
		}
		fmt.Fprintf(a.stdout, "%s%s%s\n", indent, n.Name, size)
	}
}

func (a *app) printStatus(status map[string]git.RepositoryStatus) {
	keys := slices.Sorted(maps.Keys(status))
	for _, key := range keys {
		st := status[key]
		switch {
		case !st.Exists:
			_, _ = errorColor.Fprintf(a.stdout, "%s: missing\n", key)
			continue
		case !st.IsVersionControlled:
			_, _ = errorColor.Fprintf(a.stdout, "%s: not a git repository\n", key)
			continue
		}
		branch := "detached"
		if st.CurrentBranch != nil {
			branch = *st.CurrentBranch
		}
		state := successColor.Sprint("clean")
		if !st.IsClean {
			var parts []string
			if st.HasUncommittedChanges {
				parts = append(parts, "uncommitted changes")
			}
			if st.HasUntrackedFiles {
				parts = append(parts, "untracked files")
			}
			state = warningColor.Sprint(strings.Join(parts, ", "))
		}
		fmt.Fprintf(a.stdout, "%s: %s %s\n", headerColor.Sprint(key), branchColor.Sprint(branch), state)
		if st.LastCommitHash != nil && st.LastCommitAt != nil {
			fmt.Fprintf(a.stdout, "  last commit %s at %s\n", hashColor.Sprint(*st.LastCommitHash), st.LastCommitAt.Local().Format(timeLayout))
		}
		if st.RemoteURL != nil {
			_, _ = dimColor.Fprintf(a.stdout, "  remote %s\n", *st.RemoteURL)
		}
	}
}

func (a *app) printFetch(r git.FetchReport) {
	if r.Success {
		_, _ = successColor.Fprintf(a.stdout, "✓ %s\n", r.Message)
	} else {
		_, _ = errorColor.Fprintf(a.stdout, "✗ %s\n", r.Message)
	}
	for _, e := range r.Errors {
		_, _ = dimColor.Fprintf(a.stdout, "  %s\n", e)
	}
}

func (a *app) printValidation(v git.WorkspaceValidation) {
	if v.Valid {
		_, _ = successColor.Fprintf(a.stdout, "✓ %s\n", v.Message)
	} else {
		_, _ = errorColor.Fprintf(a.stdout, "✗ %s\n", v.Message)
	}
	for _, key := range slices.Sorted(maps.Keys(v.Repositories)) {
		mark := successColor.Sprint("ok")
		if !v.Repositories[key] {
			mark = errorColor.Sprint("missing")
		}
		fmt.Fprintf(a.stdout, "  %s: %s\n", key, mark)
	}
}

func (a *app) printCommits(commits []git.CommitSummary) {
	for _, c := range commits {
		fmt.Fprintf(a.stdout, "%s %s %s %s\n",
			hashColor.Sprint(c.ShortHash),
			c.CommittedAt.Local().Format(timeLayout),
			dimColor.Sprint(c.Author),
			c.Message,
		)
	}
}

// printContent highlights source for terminals and prints it verbatim otherwise.
func (a *app) printContent(f fileContent, style string) {
	if color.NoColor || f.Content == git.BinarySentinel {
		fmt.Fprint(a.stdout, f.Content)
		return
	}
	lexer := f.Language
	if lexer == "" {
		lexer = f.Path
	}
	if err := quick.Highlight(a.stdout, f.Content, lexer, "terminal256", style); err != nil {
		fmt.Fprint(a.stdout, f.Content)
	}
}
