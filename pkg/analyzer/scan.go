package analyzer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are directory names that never contain project sources:
// VCS metadata, dependency trees, build output, editor state.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".idea":        true,
	".vscode":      true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".nuxt":        true,
}

// Scan walks a project tree and returns the forward-slash relative
// paths of every regular file, skipping the usual non-source
// directories. The result is sorted for deterministic output.
func Scan(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// codeExtensions are the file types the import extractor reads.
var codeExtensions = map[string]bool{
	".ts":     true,
	".tsx":    true,
	".js":     true,
	".jsx":    true,
	".mjs":    true,
	".cjs":    true,
	".py":     true,
	".rs":     true,
	".vue":    true,
	".svelte": true,
}

// IsCodeFile reports whether the import extractor understands a path.
func IsCodeFile(path string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}

// SkipDir reports whether a directory name is excluded from scanning
// and watching.
func SkipDir(name string) bool {
	return skipDirs[name]
}
