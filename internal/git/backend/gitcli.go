package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runGitCommand runs git against repoPath. The command is killed when ctx is done.
func runGitCommand(ctx context.Context, repoPath string, args []string, label string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repository root not set")
	}
	cmdArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	// Never block on credential prompts; fetch is best effort.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w", label, ctxErr)
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s: %v: %s", label, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s: %w", label, err)
	}
	return stdout.String(), nil
}

func fetchWithCLI(ctx context.Context, repoPath, remote string) error {
	_, err := runGitCommand(ctx, repoPath, []string{"fetch", "--prune", "--quiet", "--", remote}, "git fetch")
	return err
}
