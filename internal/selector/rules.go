// Package selector produces the ordered list of source files a run visits.
package selector

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Selector returns candidate source files in processing order.
type Selector interface {
	Select(ctx context.Context) ([]string, error)
}

// Rules decide which paths count as source files.
type Rules struct {
	// Extension is the source extension including the dot, e.g. ".js".
	Extension string
	// TestDirName is never descended into and never selected from.
	TestDirName string
	// TestSuffixes mark test files by stem suffix, e.g. ".test" for "x.test.js".
	TestSuffixes []string
	// ExcludeNames are exact base names to skip, such as the tool's own script.
	ExcludeNames []string
	// ExcludeGlobs are doublestar patterns matched against slash-separated
	// paths relative to the selection root.
	ExcludeGlobs []string
}

// SkipsDir reports whether a directory must not be descended into.
func (r Rules) SkipsDir(relativePath string, name string) bool {
	if name == r.TestDirName {
		return true
	}
	return r.matchesGlob(relativePath) || r.matchesGlob(relativePath+"/")
}

// Accepts reports whether relativePath names a selectable source file.
func (r Rules) Accepts(relativePath string) bool {
	slashed := filepath.ToSlash(relativePath)
	base := path.Base(slashed)
	if !strings.HasSuffix(base, r.Extension) {
		return false
	}
	if r.IsTestPath(slashed) {
		return false
	}
	for _, excluded := range r.ExcludeNames {
		if base == excluded {
			return false
		}
	}
	return !r.matchesGlob(slashed)
}

// IsTestPath reports whether the path sits inside the test directory or
// carries a test suffix.
func (r Rules) IsTestPath(relativePath string) bool {
	slashed := filepath.ToSlash(relativePath)
	if r.TestDirName != "" {
		for _, segment := range strings.Split(path.Dir(slashed), "/") {
			if segment == r.TestDirName {
				return true
			}
		}
	}
	stem := strings.TrimSuffix(path.Base(slashed), r.Extension)
	for _, suffix := range r.TestSuffixes {
		if suffix != "" && strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// WithinTestDir reports whether dir is, or sits below, a directory named
// TestDirName. Relative paths are resolved against the working directory.
func (r Rules) WithinTestDir(dir string) bool {
	if r.TestDirName == "" {
		return false
	}
	if absolute, err := filepath.Abs(dir); err == nil {
		dir = absolute
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/") {
		if segment == r.TestDirName {
			return true
		}
	}
	return false
}

func (r Rules) matchesGlob(slashedPath string) bool {
	for _, pattern := range r.ExcludeGlobs {
		matched, err := doublestar.Match(pattern, slashedPath)
		if err == nil && matched {
			return true
		}
	}
	return false
}
