package code_analyzer

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// PathClassifier decides whether a project-relative path is excluded from scanning.
type PathClassifier struct {
	suffixes []string
	names    map[string]struct{}
	globs    []glob.Glob
	dirs     []string
}

// NewPathClassifier builds a classifier from the fixed ignore list plus optional user patterns
// (see utils.GetIgnorePatterns). Only a leading "*." is treated as a wildcard in the fixed list.
func NewPathClassifier(patterns []string, userPatterns []string) (*PathClassifier, error) {
	classifier := &PathClassifier{names: make(map[string]struct{})}

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "*.") {
			classifier.suffixes = append(classifier.suffixes, pattern[1:])
			continue
		}
		classifier.names[pattern] = struct{}{}
	}

	for _, pattern := range userPatterns {
		if strings.HasSuffix(pattern, "/") {
			classifier.dirs = append(classifier.dirs, normalizePath(pattern))
			continue
		}
		matcher, err := glob.Compile(normalizePath(pattern), '/')
		if err != nil {
			return nil, err
		}
		classifier.globs = append(classifier.globs, matcher)
	}

	return classifier, nil
}

// ShouldIgnore reports whether any ignore rule matches the path.
func (c *PathClassifier) ShouldIgnore(relativePath string) bool {
	normalized := normalizePath(relativePath)

	for _, suffix := range c.suffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}

	if c.matchesSegment(normalized) {
		return true
	}

	for _, dir := range c.dirs {
		if strings.HasPrefix(normalized, dir) {
			return true
		}
	}

	for _, matcher := range c.globs {
		if matcher.Match(normalized) {
			return true
		}
	}

	return false
}

// ShouldPruneDir reports whether nothing below the directory can survive the segment rules,
// letting the walker skip it without visiting its entries.
func (c *PathClassifier) ShouldPruneDir(relativePath string) bool {
	normalized := normalizePath(relativePath)
	if c.matchesSegment(normalized) {
		return true
	}
	for _, dir := range c.dirs {
		if strings.HasPrefix(normalized+"/", dir) {
			return true
		}
	}
	return false
}

func (c *PathClassifier) matchesSegment(normalized string) bool {
	if _, ok := c.names[path.Base(normalized)]; ok {
		return true
	}
	for _, part := range strings.Split(normalized, "/") {
		if _, ok := c.names[part]; ok {
			return true
		}
	}
	return false
}

// normalizePath converts Windows separators so rules behave the same on every platform.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
