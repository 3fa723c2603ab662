package watcher

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidPattern indicates an exclude pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)

// =============================================================================
// Filter
// =============================================================================

// temporarySuffixes are file suffixes that mark in-progress writes or
// partial downloads. Such files never enter tracking.
var temporarySuffixes = []string{
	".tmp",
	".temp",
	".part",
	".partial",
	".crdownload",
	".download",
	".lock",
	"~",
}

// systemFiles are OS artifacts that look like files but never hold
// screenshot content.
var systemFiles = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	"desktop.ini": {},
}

// Filter decides which creation events qualify for tracking.
type Filter struct {
	extensions map[string]struct{}
	excludes   []glob.Glob
}

// NewFilter builds a filter from an image-extension allow-list and
// optional glob exclude patterns. Extensions are matched
// case-insensitively with or without a leading dot.
func NewFilter(extensions []string, excludePatterns []string) (*Filter, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		allowed["."+ext] = struct{}{}
	}

	excludes, err := compileExcludePatterns(excludePatterns)
	if err != nil {
		return nil, err
	}

	return &Filter{
		extensions: allowed,
		excludes:   excludes,
	}, nil
}

func compileExcludePatterns(patterns []string) ([]glob.Glob, error) {
	excludes := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		excludes = append(excludes, g)
	}
	return excludes, nil
}

// Accept reports whether a created path qualifies for stability
// tracking. Temporary files, system artifacts, excluded paths, and
// non-image extensions are rejected.
func (f *Filter) Accept(path string) bool {
	name := filepath.Base(path)

	if isSystemFile(name) || isTemporary(name) {
		return false
	}

	if _, ok := f.extensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return false
	}

	return !f.isExcluded(path)
}

func isSystemFile(name string) bool {
	if _, ok := systemFiles[name]; ok {
		return true
	}
	// Dot-prefixed files are near-universally editor or OS metadata.
	return strings.HasPrefix(name, ".")
}

func isTemporary(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range temporarySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (f *Filter) isExcluded(path string) bool {
	for _, pattern := range f.excludes {
		if pattern.Match(path) || pattern.Match(filepath.Base(path)) {
			return true
		}
	}
	return false
}
