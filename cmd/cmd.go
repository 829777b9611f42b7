// Package cmd implements the gitk-review command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thiagokokada/gitk-review/internal/config"
	"github.com/thiagokokada/gitk-review/internal/git"
	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func Run() error {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) error {
	a := newApp(stdout, stderr)
	root := a.rootCommand()
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && a.output == outputJSON && !errors.Is(err, errReported) {
		a.writeError(err)
	}
	return err
}

// errReported marks failures whose details were already written as the
// command's regular output.
var errReported = errors.New("reported")

type reportedError struct{ msg string }

func (e reportedError) Error() string        { return e.msg }
func (e reportedError) Is(target error) bool { return target == errReported }

type app struct {
	v       *viper.Viper
	cfgFile string
	output  string
	stdout  io.Writer
	stderr  io.Writer

	// open overrides how repositories are opened; nil uses the native backend.
	open gitbackend.Opener

	cfg *config.Config
	svc *git.Service
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{v: viper.New(), output: outputText, stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitk-review",
		Short: "Review remote branches of the workspace repositories",
		Long: `gitk-review lists recently updated remote branches, checks them out,
and renders their changes against the base branch as structured diffs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return a.checkOutput()
			}
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/gitk-review/config.yaml)")
	flags.StringP("workspace", "w", "", "directory containing the repositories")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text or json")
	flags.Bool("verbose", false, "enable verbose logging")
	flags.Bool("fetch", true, "fetch the remote before reading branches")
	_ = a.v.BindPFlag("workspace", flags.Lookup("workspace"))
	_ = a.v.BindPFlag("logging.verbose", flags.Lookup("verbose"))
	_ = a.v.BindPFlag("fetch", flags.Lookup("fetch"))

	root.AddCommand(
		a.branchesCommand(),
		a.checkoutCommand(),
		a.compareCommand(),
		a.diffCommand(),
		a.treeCommand(),
		a.statusCommand(),
		a.fetchCommand(),
		a.validateCommand(),
		a.commitsCommand(),
		a.detailsCommand(),
		a.showCommand(),
		a.watchCommand(),
		a.versionCommand(),
	)
	return root
}

// skipSetup is a command annotation for commands that need no configuration.
const skipSetup = "skip-setup"

func (a *app) checkOutput() error {
	switch a.output {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

func (a *app) setup() error {
	if err := a.checkOutput(); err != nil {
		return err
	}
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Logging.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("configuration loaded",
		slog.String("config", a.v.ConfigFileUsed()),
		slog.String("workspace", cfg.Workspace),
		slog.Bool("fetch", cfg.Fetch),
	)

	a.svc = git.New(git.NewResolver(cfg.Workspace, cfg.Repositories), a.open, cfg.ServiceOptions())
	return nil
}
