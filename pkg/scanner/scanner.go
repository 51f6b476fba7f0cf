// Package scanner discovers analyzable source files under a set of paths.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/config"
)

// Scan walks the given paths and returns supported source files, sorted,
// honoring the config's exclusion rules. Plain file arguments are kept as
// long as their language is supported.
func Scan(paths []string, cfg *config.Config) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if seen[path] {
			return
		}
		if analyzer.DetectLanguage(path) == "" || cfg.ShouldExclude(path) {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped
			}
			if d.IsDir() {
				for _, excluded := range cfg.Exclude.Dirs {
					if d.Name() == excluded {
						return filepath.SkipDir
					}
				}
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
