// Package workflow extracts secret references from CI workflow definitions.
// The scan is lexical: it recognizes the ${{ secrets.NAME }} reference
// syntax without parsing the surrounding YAML, so malformed workflows still
// yield their references.
package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var refPattern = regexp.MustCompile(`\$\{\{\s*secrets\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Scan returns the sorted, de-duplicated secret names referenced by the
// workflow file or directory at path. Directories are walked recursively for
// .yml and .yaml files.
func Scan(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("workflow source %s: %w", path, err)
	}

	names := make(map[string]bool)
	if !info.IsDir() {
		if err := scanFile(path, names); err != nil {
			return nil, err
		}
		return sorted(names), nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		return scanFile(p, names)
	})
	if err != nil {
		return nil, err
	}
	return sorted(names), nil
}

func scanFile(path string, names map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading workflow %s: %w", path, err)
	}
	for _, match := range refPattern.FindAllSubmatch(data, -1) {
		names[string(match[1])] = true
	}
	return nil
}

func sorted(names map[string]bool) []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
