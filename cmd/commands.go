package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-review/internal/buildinfo"
	"github.com/thiagokokada/gitk-review/internal/git"
	"github.com/thiagokokada/gitk-review/internal/watch"
)

func addRepoFlag(cmd *cobra.Command, repo *string, required bool) {
	usage := `repository key, or "both" for every repository`
	def := git.BothRepositories
	if required {
		usage = "repository key"
		def = ""
	}
	cmd.Flags().StringVarP(repo, "repo", "r", def, usage)
	if required {
		_ = cmd.MarkFlagRequired("repo")
	}
}

func (a *app) branchesCommand() *cobra.Command {
	var (
		repo  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List the most recently updated remote branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			branches, err := a.svc.ListRecentBranches(cmd.Context(), repo, limit)
			if err != nil {
				return err
			}
			return a.render(branches, func() { a.printBranches(branches) })
		},
	}
	addRepoFlag(cmd, &repo, false)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of branches per repository (default from config)")
	return cmd
}

func (a *app) checkoutCommand() *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "checkout BRANCH",
		Short: "Switch the repository to a branch, creating a tracking branch when needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.svc.Checkout(cmd.Context(), repo, args[0])
			if err := a.render(result, func() { a.printCheckout(result) }); err != nil {
				return err
			}
			if !result.Success {
				return reportedError{msg: result.Message}
			}
			return nil
		},
	}
	addRepoFlag(cmd, &repo, true)
	return cmd
}

func (a *app) compareCommand() *cobra.Command {
	var (
		repo     string
		base     string
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "compare BRANCH",
		Short: "Summarize the files changed by a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if detailed {
				cmp, err := a.svc.DetailedCompare(cmd.Context(), repo, args[0], base)
				if err != nil {
					return err
				}
				return a.render(cmp, func() { a.printDetailedComparison(cmp) })
			}
			cmp, err := a.svc.Compare(cmd.Context(), repo, args[0], base)
			if err != nil {
				return err
			}
			return a.render(cmp, func() { a.printComparison(cmp) })
		},
	}
	addRepoFlag(cmd, &repo, true)
	cmd.Flags().StringVarP(&base, "base", "b", "", "base branch (default from config)")
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "include line diffs for small text files")
	return cmd
}

func (a *app) diffCommand() *cobra.Command {
	var (
		repo string
		base string
	)
	cmd := &cobra.Command{
		Use:   "diff BRANCH PATH...",
		Short: "Show line-level diffs of files changed by a branch",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, paths := args[0], args[1:]
			if len(paths) == 1 {
				diff, err := a.svc.FileDiff(cmd.Context(), repo, branch, base, paths[0])
				if err != nil {
					return err
				}
				return a.render(diff, func() { a.printFileDiff(diff) })
			}
			diffs, err := a.svc.FileDiffs(cmd.Context(), repo, branch, base, paths)
			if err != nil {
				return err
			}
			return a.render(diffs, func() {
				for _, d := range diffs {
					a.printFileDiff(d)
				}
			})
		},
	}
	addRepoFlag(cmd, &repo, true)
	cmd.Flags().StringVarP(&base, "base", "b", "", "base branch (default from config)")
	return cmd
}

func (a *app) treeCommand() *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "tree REF",
		Short: "Print the file tree of a branch or commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.svc.BuildTree(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return a.render(tree, func() { a.printTree(tree) })
		},
	}
	addRepoFlag(cmd, &repo, true)
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the state of every configured repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := a.svc.Status(cmd.Context())
			return a.render(status, func() { a.printStatus(status) })
		},
	}
}

func (a *app) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the remote of every repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := a.svc.FetchAll(cmd.Context())
			if err := a.render(report, func() { a.printFetch(report) }); err != nil {
				return err
			}
			if !report.Success {
				return reportedError{msg: report.Message}
			}
			return nil
		},
	}
}

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every configured repository exists",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			v := a.svc.ValidateWorkspace()
			if err := a.render(v, func() { a.printValidation(v) }); err != nil {
				return err
			}
			if !v.Valid {
				return reportedError{msg: v.Message}
			}
			return nil
		},
	}
}

func (a *app) commitsCommand() *cobra.Command {
	var (
		repo  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "commits BRANCH",
		Short: "List the latest commits of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commits, err := a.svc.BranchCommits(cmd.Context(), repo, args[0], limit)
			if err != nil {
				return err
			}
			return a.render(commits, func() { a.printCommits(commits) })
		},
	}
	addRepoFlag(cmd, &repo, true)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits (default from config)")
	return cmd
}

func (a *app) detailsCommand() *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "details BRANCH",
		Short: "Show a recent branch together with its comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := a.svc.BranchDetails(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return a.render(details, func() {
				a.printBranches([]git.BranchRef{details.Branch})
				a.printComparison(details.Comparison)
			})
		},
	}
	addRepoFlag(cmd, &repo, true)
	return cmd
}

type fileContent struct {
	RepositoryKey string `json:"repositoryKey"`
	Revision      string `json:"revision"`
	Path          string `json:"path"`
	Language      string `json:"language,omitempty"`
	Content       string `json:"content"`
}

func (a *app) showCommand() *cobra.Command {
	var (
		repo  string
		style string
	)
	cmd := &cobra.Command{
		Use:   "show REV PATH",
		Short: "Print a file as it exists at a revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.svc.FileContent(cmd.Context(), repo, args[0], args[1])
			if err != nil {
				return err
			}
			out := fileContent{
				RepositoryKey: repo,
				Revision:      args[0],
				Path:          args[1],
				Language:      git.LanguageForPath(args[1]),
				Content:       content,
			}
			return a.render(out, func() { a.printContent(out, style) })
		},
	}
	addRepoFlag(cmd, &repo, true)
	cmd.Flags().StringVar(&style, "style", defaultHighlightStyle, "syntax highlighting style for terminals")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var (
		repo  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "List recent branches again whenever the repository refs change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slots, skipped, err := a.svc.Resolver().Expand(repo)
			if err != nil {
				return err
			}
			for key, err := range skipped {
				a.warn(fmt.Sprintf("skipping %s: %v", key, err))
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			w := watch.New(a.svc, repo, limit, slots, func(branches []git.BranchRef, err error) {
				if err != nil {
					a.warn(err.Error())
					return
				}
				if err := a.render(branches, func() {
					a.printSection(fmt.Sprintf("%d recent branches", len(branches)))
					a.printBranches(branches)
				}); err != nil {
					a.warn(err.Error())
				}
			}, watch.WithRemote(a.cfg.Remote))
			return w.Run(ctx)
		},
	}
	addRepoFlag(cmd, &repo, false)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of branches per repository (default from config)")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			info := buildinfo.Read()
			return a.render(info, func() { fmt.Fprintf(a.stdout, "gitk-review %s\n", info) })
		},
	}
}
