// Package gitdiff lists files changed in a git working tree relative to a reference.
package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBaseRef is the reference the working tree is compared against when none is given.
const DefaultBaseRef = "HEAD"

type Options struct {
	WorkingDir string
	BaseRef    string
}

// Collector lists changed paths for a repository.
type Collector struct {
	runner CommandRunner
}

// CommandRunner executes git commands within a working directory.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

type commandExecutor struct{}

// ErrNotRepository indicates the working directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// NewCollector constructs a collector that shells out to git.
func NewCollector() Collector {
	return Collector{runner: commandExecutor{}}
}

// NewCollectorWithRunner injects a custom command runner, used mainly for tests.
func NewCollectorWithRunner(runner CommandRunner) Collector {
	return Collector{runner: runner}
}

// ChangedFiles returns the paths reported by `git diff --name-only`, relative
// to the working directory, in the order git prints them. Names are read
// NUL-separated so git never quotes them.
func (c Collector) ChangedFiles(ctx context.Context, opts Options) ([]string, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}
	if err := ensureRepository(ctx, c.runner, workingDir); err != nil {
		return nil, err
	}

	baseRef := strings.TrimSpace(opts.BaseRef)
	if baseRef == "" {
		baseRef = DefaultBaseRef
	}
	out, err := c.runner.Run(ctx, workingDir, "git", "diff", "--name-only", "--relative", "-z", baseRef)
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", baseRef, err)
	}
	return parseNames(out), nil
}

func parseNames(output string) []string {
	var names []string
	for _, name := range strings.Split(output, "\x00") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func ensureRepository(ctx context.Context, runner CommandRunner, dir string) error {
	_, err := runner.Run(ctx, dir, "git", "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotRepository, dir, err)
	}
	return nil
}

func (commandExecutor) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
