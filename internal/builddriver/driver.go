package builddriver

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dittolang/ditto/internal/checker"
	"github.com/dittolang/ditto/internal/errors"
)

// Options configures one Driver.Build invocation.
type Options struct {
	// Roots are the source directories to discover .ditto files under.
	Roots []string
	// BuildDir is where every target's outputs and the persisted build
	// cache live (spec.md §6: "the build-dir path is explicit on each
	// invocation").
	BuildDir string
	// Workers bounds the worker pool size; <= 0 uses GOMAXPROCS.
	Workers int
	// External resolves an import qualified by an external package.
	External ExternalResolver
}

// Summary is the human-readable end-of-run report the CLI prints
// (domain-stack wiring: "build driver's human-readable summary line
// (bytes written, elapsed) printed at the end of a run").
type Summary struct {
	RunID          string
	Elapsed        time.Duration
	ModulesBuilt   int
	ModulesSkipped int
	BytesWritten   int64
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d module(s) built, %d unchanged, %s written (%s elapsed)",
		s.RunID, s.ModulesBuilt, s.ModulesSkipped, humanize.Bytes(uint64(s.BytesWritten)), s.Elapsed.Round(time.Millisecond))
}

// Driver orchestrates one full build: discovery, ast() targets in
// dependency order, then js() targets, writing a run-id into every
// fatal diagnostic it returns so a single invocation's errors can be
// correlated across modules (spec.md §4.5, §5).
type Driver struct {
	opts   Options
	header *HeaderCache
}

// New creates a Driver for the given options. The returned Driver owns
// one HeaderCache for its whole lifetime, so calling Build more than
// once on the same Driver (an embedder rebuilding in a loop) reuses
// parsed headers for any source file whose
// content hash has not changed since the previous call.
func New(opts Options) *Driver {
	return &Driver{opts: opts, header: NewHeaderCache()}
}

// Build runs ast() for every discovered module in dependency order,
// then js() for every module whose ast() succeeded, and returns a run
// summary. A cycle or any fatal diagnostic aborts the run; the build
// cache is still saved for whatever targets completed before the abort
// so a subsequent run does not redundantly redo their work.
func (d *Driver) Build() (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()

	disc, err := DiscoverWithCache(d.opts.Roots, d.header)
	if err != nil {
		return nil, annotateRunID(err, runID)
	}

	if _, err := disc.Graph.TopoSort(); err != nil {
		return nil, err
	}

	cache, err := LoadCache(d.opts.BuildDir)
	if err != nil {
		return nil, err
	}

	ex := &Executor{
		BuildDir: d.opts.BuildDir,
		Cache:    cache,
		Sources:  disc.Sources,
		External: d.opts.External,
	}

	var built, skipped int64
	astErr := Run(disc.Graph, d.opts.Workers, func(t TargetID) error {
		wasSkipped, err := ex.RunAST(t.Name)
		if err != nil {
			return err
		}
		if wasSkipped {
			atomic.AddInt64(&skipped, 1)
		} else {
			atomic.AddInt64(&built, 1)
		}
		return nil
	})
	if astErr != nil {
		_ = cache.Save()
		return nil, annotateRunID(astErr, runID)
	}
	if err := cache.Save(); err != nil {
		return nil, err
	}

	// js() targets have no inter-module ordering dependency beyond their
	// own ast() having already completed (codegen never reads another
	// module's .ast), so they schedule from a graph of independent
	// leaves.
	jsGraph := NewGraph()
	for module := range disc.Sources {
		jsGraph.AddTarget(TargetID{Kind: KindJS, Name: module})
	}
	jsErr := Run(jsGraph, d.opts.Workers, func(t TargetID) error {
		return ex.RunJS(t.Name, importPathsFor(disc, t.Name))
	})
	if jsErr != nil {
		return nil, annotateRunID(jsErr, runID)
	}

	return &Summary{
		RunID:          runID,
		Elapsed:        time.Since(start),
		ModulesBuilt:   int(built),
		ModulesSkipped: int(skipped),
		BytesWritten:   ex.BytesWritten(),
	}, nil
}

// importPathsFor computes the relative JS import path for every alias a
// module declares. Every local module's generated JS lives flat under
// the build directory (spec.md §4.4 leaves the exact path scheme to the
// build driver), so a sibling import is simply "./Other.js"; an import
// qualified by an external package resolves to "<package>/<Module>.js",
// since resolving a package's actual on-disk layout is the package
// manager's job and explicitly out of scope (spec.md §1).
func importPathsFor(disc *DiscoverResult, module string) map[string]string {
	out := map[string]string{}
	for _, imp := range disc.Imports[module] {
		if imp.Package != "" {
			out[imp.Alias] = imp.Package + "/" + imp.Module + ".js"
			continue
		}
		out[imp.Alias] = "./" + imp.Module + ".js"
	}
	return out
}

func annotateRunID(err error, runID string) error {
	if cerrs, ok := err.(*checker.Errors); ok {
		for _, rep := range cerrs.Reports {
			if rep.Data == nil {
				rep.Data = map[string]any{}
			}
			rep.Data["run"] = runID
		}
		return err
	}
	if rep, ok := errors.AsReport(err); ok {
		if rep.Data == nil {
			rep.Data = map[string]any{}
		}
		rep.Data["run"] = runID
		return errors.Wrap(rep)
	}
	return err
}
