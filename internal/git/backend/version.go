package backend

import (
	"cmp"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Oldest git executable trusted for fetches. "fetch --prune" with an explicit
// remote and a non-interactive environment behaves consistently from here on.
var minGitVersion = gitVersion{major: 2, minor: 20, patch: 0}

type gitVersion struct {
	major, minor, patch int
}

func MinGitVersion() string {
	return minGitVersion.String()
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	return cmp.Or(
		cmp.Compare(v.major, other.major),
		cmp.Compare(v.minor, other.minor),
		cmp.Compare(v.patch, other.patch),
	) < 0
}

var gitVersionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// parseGitVersionOutput understands "git version 2.44.0",
// "git version 2.39.3 (Apple Git-146)" and "git version 2.39.3.windows.1".
func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	s = strings.TrimSpace(strings.TrimPrefix(s, "git version"))
	m := gitVersionRe.FindStringSubmatch(s)
	if m == nil {
		return gitVersion{}, false
	}
	var v gitVersion
	v.major, _ = strconv.Atoi(m[1])
	v.minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

func validateGitVersionOutput(out string) error {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if got.less(minGitVersion) {
		return fmt.Errorf("git %s is too old; gitk-review fetches require git >= %s", got, minGitVersion)
	}
	return nil
}

var (
	gitCLIOnce sync.Once
	gitCLIOut  string
	gitCLIErr  error
)

// GitVersion returns the raw "git --version" output of the installed executable.
func GitVersion() (string, error) {
	probeGitCLI()
	return gitCLIOut, gitCLIErr
}

// gitCLIUsable reports whether fetches may be delegated to the git executable.
func gitCLIUsable() error {
	probeGitCLI()
	if gitCLIErr != nil {
		return gitCLIErr
	}
	return validateGitVersionOutput(gitCLIOut)
}

func probeGitCLI() {
	gitCLIOnce.Do(func() {
		outBytes, err := exec.Command("git", "--version").CombinedOutput()
		gitCLIOut = strings.TrimSpace(string(outBytes))
		if err != nil {
			if gitCLIOut != "" {
				gitCLIErr = fmt.Errorf("git --version: %v: %s", err, gitCLIOut)
				return
			}
			gitCLIErr = fmt.Errorf("git --version: %w", err)
		}
	})
}
