package selector

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/testgen/internal/fsops"
)

// Walker selects files by walking a directory tree depth-first.
type Walker struct {
	FS     fsops.FS
	Root   string
	Rules  Rules
	Logger *zap.Logger
}

// Select returns matching files in walk order. Paths are the root joined with
// the relative path, so a relative root yields relative paths.
func (w Walker) Select(ctx context.Context) ([]string, error) {
	root := filepath.Clean(w.Root)
	if w.Rules.WithinTestDir(root) {
		logger(w.Logger).Info("root is inside the test directory; nothing to select", zap.String("root", root))
		return nil, nil
	}
	var files []string
	walkErr := w.FS.WalkDir(root, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		relativePath, relErr := filepath.Rel(root, current)
		if relErr != nil {
			return relErr
		}
		if entry.IsDir() {
			if current != root && w.Rules.SkipsDir(filepath.ToSlash(relativePath), entry.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if w.Rules.Accepts(relativePath) {
			files = append(files, current)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	logger(w.Logger).Info("source files discovered", zap.String("root", root), zap.Int("count", len(files)), zap.Strings("files", files))
	return files, nil
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
