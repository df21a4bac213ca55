// Package analyzer produces the dependency graph the topology session
// explores: it scans a project tree and extracts intra-project import
// edges from JavaScript/TypeScript and Python sources.
package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
)

// extractionCacheSize bounds the per-file extraction cache. Entries
// are small (a handful of import refs), so this covers large projects.
const extractionCacheSize = 8192

// Analyzer turns a project directory into a model.DependencyGraph.
// Extraction results are cached per file content identity so that a
// watch-triggered re-analysis only re-reads files that changed.
type Analyzer struct {
	root  string
	cache *lru.Cache[string, []importRef]
}

// New creates an analyzer rooted at a project directory.
func New(root string) (*Analyzer, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	cache, err := lru.New[string, []importRef](extractionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}
	return &Analyzer{root: root, cache: cache}, nil
}

// Root returns the project directory this analyzer scans.
func (a *Analyzer) Root() string {
	return a.root
}

// Analyze scans the project and resolves every import against the
// scanned file set. The node list contains all scanned files, code or
// not; non-code files simply never carry edges. Unreadable files are
// skipped with a warning.
func (a *Analyzer) Analyze() (model.DependencyGraph, error) {
	files, err := Scan(a.root)
	if err != nil {
		return model.DependencyGraph{}, err
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f] = true
	}

	g := model.NewDependencyGraph()
	g.Nodes = files

	for _, file := range files {
		if !IsCodeFile(file) {
			continue
		}
		refs, err := a.importsOf(file)
		if err != nil {
			logging.Warn("skipping unreadable file", "path", file, "error", err)
			continue
		}
		for _, ref := range refs {
			// Only imports resolving to a project file become edges;
			// package imports and unknown targets are dropped.
			if target, ok := resolve(file, ref, known); ok {
				g.Edges = append(g.Edges, model.Edge{Source: file, Target: target})
			}
		}
	}

	logging.Info("project analyzed",
		"root", a.root,
		"files", len(g.Nodes),
		"edges", len(g.Edges),
	)
	return g, nil
}

// importsOf extracts a file's import references through the cache.
// The key ties the entry to the file's size and mtime, so a changed
// file misses and is re-read.
func (a *Analyzer) importsOf(file string) ([]importRef, error) {
	abs := filepath.Join(a.root, filepath.FromSlash(file))
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%d", file, info.Size(), info.ModTime().UnixNano())
	if refs, ok := a.cache.Get(key); ok {
		return refs, nil
	}

	refs, err := extractImports(abs)
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, refs)
	return refs, nil
}

// LoadGraphFile reads a pre-computed dependency graph JSON document,
// the alternative input for projects analyzed elsewhere.
func LoadGraphFile(path string) (model.DependencyGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DependencyGraph{}, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g model.DependencyGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return model.DependencyGraph{}, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}

	logging.Info("graph file loaded", "path", path, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}
