package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// repoKeyRegex restricts repository keys to identifiers; "both" is reserved.
var repoKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Validate reports every invalid setting in c.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(c.Workspace) == "" {
		errs = append(errs, ValidationError{Field: "workspace", Value: c.Workspace, Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Remote) == "" || strings.Contains(c.Remote, "/") {
		errs = append(errs, ValidationError{Field: "remote", Value: c.Remote, Message: "must be a remote name without slashes"})
	}
	if strings.TrimSpace(c.BaseBranch) == "" {
		errs = append(errs, ValidationError{Field: "base_branch", Value: c.BaseBranch, Message: "must not be empty"})
	}
	if c.BranchLimit < 1 {
		errs = append(errs, ValidationError{Field: "branch_limit", Value: c.BranchLimit, Message: "must be at least 1"})
	}
	if c.DetailThreshold < 1 {
		errs = append(errs, ValidationError{Field: "detail_threshold", Value: c.DetailThreshold, Message: "must be at least 1"})
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "fetch_timeout", Value: c.FetchTimeout, Message: "must be positive"})
	}
	if len(c.Repositories) == 0 {
		errs = append(errs, ValidationError{Field: "repositories", Value: c.Repositories, Message: "must configure at least one repository"})
	}
	for key, folder := range c.Repositories {
		field := "repositories." + key
		switch {
		case key == "both" || !repoKeyRegex.MatchString(key):
			errs = append(errs, ValidationError{Field: field, Value: key, Message: "invalid repository key"})
		case strings.TrimSpace(folder) == "":
			errs = append(errs, ValidationError{Field: field, Value: folder, Message: "folder must not be empty"})
		}
	}
	return errs
}
