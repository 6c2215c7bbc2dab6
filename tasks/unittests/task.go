// Package unittests generates unit tests for source files and writes them
// into a test directory beside each file.
package unittests

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/temirov/testgen/internal/fsops"
	"github.com/temirov/testgen/internal/identify"
	"github.com/temirov/testgen/internal/pipeline"
	"github.com/temirov/testgen/internal/selector"
)

const (
	taskName            = "unit-tests"
	DefaultTestDirName  = "__tests__"
	DefaultFramework    = "Jest"
	generatedTestSuffix = ".test"
)

type Config struct {
	TestDirName  string
	Framework    string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  *float64
	DryRun       bool
}

type Task struct {
	fs       fsops.Ops
	selector selector.Selector
	cfg      Config
}

func NewWithDeps(fs fsops.Ops, sel selector.Selector, cfg Config) *Task {
	if strings.TrimSpace(cfg.TestDirName) == "" {
		cfg.TestDirName = DefaultTestDirName
	}
	if strings.TrimSpace(cfg.Framework) == "" {
		cfg.Framework = DefaultFramework
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Task{fs: fs, selector: sel, cfg: cfg}
}

func (t *Task) Name() string { return taskName }

// 1) Select
func (t *Task) Select(ctx context.Context) ([]string, error) {
	return t.selector.Select(ctx)
}

// 2) Extract
func (t *Task) Extract(ctx context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", nil
	}
	return t.fs.ReadText(filename)
}

// 3) Identify
func (t *Task) Identify(ctx context.Context, filename string, code string) []string {
	return identify.Functions(code)
}

// 4) Prompt
func (t *Task) Prompt(ctx context.Context, source pipeline.Source) (pipeline.LLMRequest, error) {
	return pipeline.LLMRequest{
		SystemPrompt: t.cfg.SystemPrompt,
		UserPrompt:   BuildPrompt(t.cfg.Framework, ModuleName(source.Filename), source.Functions, source.Code),
		MaxTokens:    t.cfg.MaxTokens,
		Temperature:  t.cfg.Temperature,
		Model:        t.cfg.Model,
	}, nil
}

// 5) Persist: replace whatever test file exists for the source.
func (t *Task) Persist(ctx context.Context, source pipeline.Source, tests string) (pipeline.PersistResult, error) {
	if tests == "" || strings.TrimSpace(source.Filename) == "" {
		return pipeline.PersistResult{}, nil
	}
	target := TestPath(source.Filename, t.cfg.TestDirName)
	if t.cfg.DryRun {
		return pipeline.PersistResult{Path: target}, nil
	}
	if err := t.fs.Overwrite(target, tests); err != nil {
		return pipeline.PersistResult{}, err
	}
	return pipeline.PersistResult{Path: target, Written: true}, nil
}

// ModuleName is the file's base name without its extension.
func ModuleName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TestPath places "<name>.test<ext>" in testDirName next to filename.
func TestPath(filename string, testDirName string) string {
	extension := filepath.Ext(filename)
	return filepath.Join(filepath.Dir(filename), testDirName, ModuleName(filename)+generatedTestSuffix+extension)
}
