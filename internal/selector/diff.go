package selector

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/testgen/internal/fsops"
	"github.com/temirov/testgen/internal/gitdiff"
)

// ChangeLister reports paths changed since a reference, relative to a directory.
type ChangeLister interface {
	ChangedFiles(ctx context.Context, opts gitdiff.Options) ([]string, error)
}

// DiffSelector selects files that git reports as changed against BaseRef.
// Failures to query git are logged and produce an empty selection.
type DiffSelector struct {
	Changes ChangeLister
	FS      fsops.FS
	Root    string
	BaseRef string
	Rules   Rules
	Logger  *zap.Logger
}

func (d DiffSelector) Select(ctx context.Context) ([]string, error) {
	log := logger(d.Logger)
	root := filepath.Clean(d.Root)
	if d.Rules.WithinTestDir(root) {
		log.Info("root is inside the test directory; nothing to select", zap.String("root", root))
		return nil, nil
	}
	changed, err := d.Changes.ChangedFiles(ctx, gitdiff.Options{WorkingDir: root, BaseRef: d.BaseRef})
	if err != nil {
		log.Warn("detect changed files failed; nothing to process", zap.String("root", root), zap.Error(err))
		return nil, nil
	}

	ops := fsops.NewOps(d.FS)
	var files []string
	for _, relativePath := range changed {
		if !d.Rules.Accepts(relativePath) {
			continue
		}
		candidate := filepath.Join(root, filepath.FromSlash(relativePath))
		if !ops.FileExists(candidate) {
			log.Debug("skipping changed path missing on disk", zap.String("path", candidate))
			continue
		}
		files = append(files, candidate)
	}
	if len(files) == 0 {
		log.Info("no changed source files detected", zap.String("root", root), zap.String("ref", d.BaseRef))
		return files, nil
	}
	log.Info("changed source files detected", zap.String("root", root), zap.Int("count", len(files)), zap.Strings("files", files))
	return files, nil
}
