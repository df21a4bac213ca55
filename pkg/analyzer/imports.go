package analyzer

import (
	"bufio"
	"os"
	"path"
	"regexp"
	"strings"
)

// refKind distinguishes the resolution rules an import reference needs.
type refKind int

const (
	refJS refKind = iota
	refPyRelative
	refPyAbsolute
)

// importRef is one raw import statement before resolution. Extraction
// is cacheable per file; resolution depends on the current file set
// and is re-done on every analysis.
type importRef struct {
	kind   refKind
	module string // JS specifier or Python dotted module path
	dots   int    // leading dots of a relative Python import
}

var (
	jsFromRe    = regexp.MustCompile(`import\s+[^'"]*?\bfrom\s+['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	pyFromRe    = regexp.MustCompile(`^from\s+(\.*)([\w.]*)\s+import\s`)
	pyImportRe  = regexp.MustCompile(`^import\s+([\w][\w.]*)`)
)

// extractImports reads a code file and returns its import references.
// Comment lines are skipped; JS specifiers that do not start with '.'
// are package imports and carry no intra-project edge.
func extractImports(filename string) ([]importRef, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var refs []importRef
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		for _, re := range []*regexp.Regexp{jsFromRe, jsRequireRe} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				if strings.HasPrefix(m[1], ".") {
					refs = append(refs, importRef{kind: refJS, module: m[1]})
				}
			}
		}

		if m := pyFromRe.FindStringSubmatch(line); m != nil {
			dots, module := len(m[1]), m[2]
			if dots > 0 {
				refs = append(refs, importRef{kind: refPyRelative, module: module, dots: dots})
			} else if module != "" {
				refs = append(refs, importRef{kind: refPyAbsolute, module: module})
			}
		} else if m := pyImportRe.FindStringSubmatch(line); m != nil {
			refs = append(refs, importRef{kind: refPyAbsolute, module: m[1]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

// resolve maps an import reference to a known project file, or reports
// that it points outside the project.
func resolve(sourceFile string, ref importRef, known map[string]bool) (string, bool) {
	sourceDir := path.Dir(sourceFile)
	if sourceDir == "." {
		sourceDir = ""
	}
	switch ref.kind {
	case refJS:
		return resolveJS(sourceDir, ref.module, known)
	case refPyRelative:
		return resolvePyRelative(sourceDir, ref.module, ref.dots, known)
	default:
		return resolvePyAbsolute(ref.module, known)
	}
}

var (
	jsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".vue"}
	jsIndexFiles = []string{"/index.ts", "/index.tsx", "/index.js", "/index.jsx"}
)

// resolveJS tries the specifier as written, then with each source
// extension appended, then as a directory with an index file.
func resolveJS(sourceDir, spec string, known map[string]bool) (string, bool) {
	base := normalizePath(sourceDir + "/" + spec)
	if known[base] {
		return base, true
	}
	for _, ext := range jsExtensions {
		if known[base+ext] {
			return base + ext, true
		}
	}
	for _, index := range jsIndexFiles {
		if known[base+index] {
			return base + index, true
		}
	}
	return "", false
}

// resolvePyRelative resolves "from .mod import x" style imports: one
// dot means the source file's own directory, each further dot one
// parent hop up.
func resolvePyRelative(sourceDir, module string, dots int, known map[string]bool) (string, bool) {
	dir := sourceDir
	for i := 1; i < dots; i++ {
		if dir == "" {
			return "", false
		}
		dir = path.Dir(dir)
		if dir == "." {
			dir = ""
		}
	}

	base := dir
	if module != "" {
		rel := strings.ReplaceAll(module, ".", "/")
		if base == "" {
			base = rel
		} else {
			base = base + "/" + rel
		}
	}
	if base == "" {
		return "", false
	}
	return tryPyCandidates(base, known)
}

// resolvePyAbsolute resolves "import pkg.mod" and "from pkg import x".
// When the project root is itself the top-level package the first
// segment does not exist on disk, so it is stripped once and the
// lookup retried.
func resolvePyAbsolute(module string, known map[string]bool) (string, bool) {
	base := strings.ReplaceAll(module, ".", "/")
	if target, ok := tryPyCandidates(base, known); ok {
		return target, true
	}
	if i := strings.Index(base, "/"); i >= 0 {
		return tryPyCandidates(base[i+1:], known)
	}
	return "", false
}

func tryPyCandidates(base string, known map[string]bool) (string, bool) {
	if known[base+".py"] {
		return base + ".py", true
	}
	if known[base+"/__init__.py"] {
		return base + "/__init__.py", true
	}
	return "", false
}

// normalizePath collapses ".", ".." and empty segments of a joined
// forward-slash path.
func normalizePath(p string) string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}
