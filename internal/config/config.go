// Package config loads gitk-review settings from defaults, a YAML file and
// GITK_REVIEW_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thiagokokada/gitk-review/internal/git"
)

const EnvPrefix = "GITK_REVIEW"

type Config struct {
	Workspace       string            `mapstructure:"workspace"`
	Remote          string            `mapstructure:"remote"`
	BaseBranch      string            `mapstructure:"base_branch"`
	BranchLimit     int               `mapstructure:"branch_limit"`
	DetailThreshold int               `mapstructure:"detail_threshold"`
	Fetch           bool              `mapstructure:"fetch"`
	FetchTimeout    time.Duration     `mapstructure:"fetch_timeout"`
	ReservedNames   []string          `mapstructure:"reserved_names"`
	Repositories    map[string]string `mapstructure:"repositories"`
	Logging         LoggingConfig     `mapstructure:"logging"`
}

type LoggingConfig struct {
	// Verbose enables debug logging on stderr.
	Verbose bool `mapstructure:"verbose"`
}

func Default() *Config {
	return &Config{
		Workspace:       ".",
		Remote:          git.DefaultRemote,
		BaseBranch:      git.DefaultBaseBranch,
		BranchLimit:     git.DefaultBranchLimit,
		DetailThreshold: git.DefaultDetailThreshold,
		Fetch:           true,
		FetchTimeout:    git.DefaultFetchTimeout,
		ReservedNames:   git.DefaultReservedNames(),
		Repositories:    git.DefaultRepositories(),
	}
}

// SetDefaults registers every scalar key on v so env overrides and Unmarshal
// see them even without a config file. Repositories are defaulted by Load
// so a config file replaces the default set instead of merging into it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("workspace", d.Workspace)
	v.SetDefault("remote", d.Remote)
	v.SetDefault("base_branch", d.BaseBranch)
	v.SetDefault("branch_limit", d.BranchLimit)
	v.SetDefault("detail_threshold", d.DetailThreshold)
	v.SetDefault("fetch", d.Fetch)
	v.SetDefault("fetch_timeout", d.FetchTimeout)
	v.SetDefault("reserved_names", d.ReservedNames)
	v.SetDefault("logging.verbose", d.Logging.Verbose)
}

// Init prepares v: defaults, config file lookup and environment binding.
// A missing config file is not an error; an explicit cfgFile that cannot be
// read is.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return fmt.Errorf("read config: %w", err)
	}
	// Fall back to a project-local gitk-review.yaml.
	v.SetConfigName("gitk-review")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ReservedNames = splitList(cfg.ReservedNames)
	if len(cfg.Repositories) == 0 {
		cfg.Repositories = git.DefaultRepositories()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// splitList accepts both YAML lists and the comma separated form used by
// environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// ServiceOptions maps the configuration onto engine options.
func (c *Config) ServiceOptions() git.Options {
	return git.Options{
		Remote:          c.Remote,
		BaseBranch:      c.BaseBranch,
		BranchLimit:     c.BranchLimit,
		DetailThreshold: c.DetailThreshold,
		Fetch:           c.Fetch,
		FetchTimeout:    c.FetchTimeout,
		ReservedNames:   c.ReservedNames,
	}
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitk-review")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitk-review"
	}
	return filepath.Join(home, ".config", "gitk-review")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
