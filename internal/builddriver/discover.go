package builddriver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/cst"
	"github.com/dittolang/ditto/internal/errors"
)

// sourceExt is the extension of a ditto source file (spec.md §6).
const sourceExt = ".ditto"

// header is the small slice of a source file's CST the build driver
// needs to construct the dependency graph without checking it (spec.md
// §4.5: "parse only the module header and imports ... without
// checking").
type header struct {
	path    string
	module  string
	imports []*ast.Import
}

// HeaderCache memoizes parsed headers by absolute path + content hash
// across repeated Discover calls on one long-lived *Driver, so a
// process that runs several builds in a row (an embedder driving
// Driver.Build in a loop) does not re-lex
// and re-parse the header of a file whose content hash it has already
// seen. A single one-shot Discover call, by contrast, visits each path
// exactly once and gets no hits from its own run — the cache only pays
// for itself across calls, which is why Driver owns and reuses one
// instance rather than each Discover call creating its own.
type HeaderCache struct {
	lru *lru.Cache[string, header]
}

// defaultHeaderCacheSize bounds memory for very large source trees;
// 256 headers comfortably covers the module count of any realistic
// single build.
const defaultHeaderCacheSize = 256

// NewHeaderCache creates an empty HeaderCache, ready to be reused across
// multiple Discover calls.
func NewHeaderCache() *HeaderCache {
	c, err := lru.New[string, header](defaultHeaderCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which defaultHeaderCacheSize
		// never is.
		panic(err)
	}
	return &HeaderCache{lru: c}
}

// Source is one discovered .ditto file with the module path it
// declares.
type Source struct {
	Path   string
	Module string
}

// DiscoverResult is the output of walking the configured source roots:
// the dependency graph of ast() targets, each module's resolved source
// path, and each module's import list (needed later to compute codegen's
// per-alias JS import paths without re-parsing), ready for the
// scheduler to execute.
type DiscoverResult struct {
	Graph   *Graph
	Sources map[string]Source // module name -> source
	Imports map[string][]*ast.Import
}

// Discover walks roots for .ditto files and builds the ast() target
// subgraph using a fresh, call-scoped HeaderCache. Most callers that
// only discover once (the CLI, tests) want this; a caller that runs
// several builds in one process should use DiscoverWithCache with a
// HeaderCache it keeps across calls instead.
func Discover(roots []string) (*DiscoverResult, error) {
	return DiscoverWithCache(roots, NewHeaderCache())
}

// DiscoverWithCache walks roots for .ditto files, parses each one's
// module header and import list (not its full body — no checking
// happens here) through cache, and builds the ast() target subgraph:
// ast(M) depends on ast(Dep) for every import Dep declares locally in
// this build. Imports of modules outside the given roots (e.g. from
// another package) are left as leaves; the caller resolves those via
// already-built .ast-exports files instead of scheduling a target for
// them.
func DiscoverWithCache(roots []string, cache *HeaderCache) (*DiscoverResult, error) {
	sources := map[string]Source{}
	var headers []header

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, sourceExt) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			h, err := parseHeaderCached(cache, abs)
			if err != nil {
				return err
			}
			if prev, dup := sources[h.module]; dup {
				return fmt.Errorf("build: module %q declared in both %s and %s", h.module, prev.Path, abs)
			}
			sources[h.module] = Source{Path: abs, Module: h.module}
			headers = append(headers, h)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(headers, func(i, j int) bool { return headers[i].module < headers[j].module })

	g := NewGraph()
	imports := map[string][]*ast.Import{}
	for _, h := range headers {
		astID := TargetID{Kind: KindAST, Name: h.module}
		g.AddTarget(astID)
		imports[h.module] = h.imports
		for _, imp := range h.imports {
			if imp.Package != "" {
				// An import qualified by an external package is resolved
				// from that package's already-built interfaces, not from
				// this source tree's own graph.
				continue
			}
			if _, local := sources[imp.Module]; !local {
				continue
			}
			g.AddEdge(astID, TargetID{Kind: KindAST, Name: imp.Module})
		}
	}

	return &DiscoverResult{Graph: g, Sources: sources, Imports: imports}, nil
}

func parseHeaderCached(cache *HeaderCache, absPath string) (header, error) {
	hash, err := ContentHash(absPath)
	if err != nil {
		return header{}, err
	}
	key := absPath + "@" + hash
	if h, ok := cache.lru.Get(key); ok {
		return h, nil
	}

	src, err := os.ReadFile(absPath)
	if err != nil {
		return header{}, err
	}
	f, err := cst.ParseHeader(string(src), absPath)
	if err != nil {
		if rep, ok := errors.AsReport(err); ok {
			return header{}, errors.Wrap(rep)
		}
		return header{}, err
	}
	m := ast.Lower(f)
	h := header{path: absPath, module: m.Name, imports: m.Imports}
	cache.lru.Add(key, h)
	return h, nil
}
