package testgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/testgen/internal/config"
	"github.com/temirov/testgen/internal/fsops"
	"github.com/temirov/testgen/internal/gitdiff"
	"github.com/temirov/testgen/internal/selector"
	"github.com/temirov/testgen/tasks/unittests"
)

type selectorBuilder func(selection config.Selection, filesystem fsops.FS, logger *zap.Logger) (selector.Selector, error)

var selectorBuilders = map[string]selectorBuilder{
	config.StrategyWalk: buildWalkSelector,
	config.StrategyDiff: buildDiffSelector,
}

func buildSelector(selection config.Selection, filesystem fsops.FS, logger *zap.Logger) (selector.Selector, error) {
	strategy := strings.ToLower(strings.TrimSpace(selection.Strategy))
	builder, ok := selectorBuilders[strategy]
	if !ok {
		return nil, fmt.Errorf(unknownStrategyErrorFormat, selection.Strategy)
	}
	built, err := builder(selection, filesystem, logger.Named(strategy))
	if err != nil {
		return nil, fmt.Errorf(selectorConstructionErrorFormat, strategy, err)
	}
	return built, nil
}

func selectionRules(selection config.Selection) selector.Rules {
	return selector.Rules{
		Extension:    selection.Extension,
		TestDirName:  selection.TestDir,
		TestSuffixes: selection.TestSuffixes,
		ExcludeNames: selection.ExcludeNames,
		ExcludeGlobs: selection.ExcludeGlobs,
	}
}

func buildWalkSelector(selection config.Selection, filesystem fsops.FS, logger *zap.Logger) (selector.Selector, error) {
	return selector.Walker{
		FS:     filesystem,
		Root:   selection.Root,
		Rules:  selectionRules(selection),
		Logger: logger,
	}, nil
}

func buildDiffSelector(selection config.Selection, filesystem fsops.FS, logger *zap.Logger) (selector.Selector, error) {
	return selector.DiffSelector{
		Changes: gitdiff.NewCollector(),
		FS:      filesystem,
		Root:    selection.Root,
		BaseRef: selection.Ref,
		Rules:   selectionRules(selection),
		Logger:  logger,
	}, nil
}

func buildUnitTestTask(root config.Root, filesystem fsops.FS, logger *zap.Logger, dryRun bool) (*unittests.Task, error) {
	fileSelector, err := buildSelector(root.Selection, filesystem, logger)
	if err != nil {
		return nil, err
	}
	return unittests.NewWithDeps(fsops.NewOps(filesystem), fileSelector, unittests.Config{
		TestDirName:  root.Selection.TestDir,
		Framework:    root.Generation.Framework,
		SystemPrompt: root.Generation.SystemPrompt,
		Model:        root.Service.Model,
		MaxTokens:    root.Service.MaxTokens,
		Temperature:  root.Service.Temperature,
		DryRun:       dryRun,
	}), nil
}
