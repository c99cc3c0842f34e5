package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoInputs is returned when no file arguments are given.
var ErrNoInputs = errors.New("no input files provided")

// ExpandGlobs expands file paths and glob patterns into a sorted unique list
// of regular files. Directories matched by a glob are skipped; a directory
// named explicitly is an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoInputs
	}

	files := make([]string, 0, len(patterns))
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, pattern := range patterns {
		if !hasGlobMeta(pattern) {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory", pattern)
			}
			add(pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		found := 0
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			add(match)
			found++
		}
		if found == 0 {
			return nil, fmt.Errorf("no matches for pattern %q", pattern)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
