package builddriver

import (
	"fmt"
	"strings"
)

// node is one target's graph entry: its declared predecessors ("must
// exist before" edges, spec.md §4.5) and the dependents that become
// runnable once it completes.
type node struct {
	id         TargetID
	deps       []TargetID
	dependents []TargetID
}

// Graph is the dependency graph over compile targets. It is a pure data
// structure; the scheduler in scheduler.go walks it to decide what runs
// when, mirroring the teacher's internal/link/topo.go DFS-with-cycle-
// detection shape, generalized from a single module-import graph to the
// four-kind target graph spec.md §4.5 describes.
type Graph struct {
	nodes map[TargetID]*node
	// order preserves insertion order so diagnostics and the topological
	// sort tie-break deterministically rather than on map iteration
	// order.
	order []TargetID
}

// NewGraph creates an empty build graph.
func NewGraph() *Graph {
	return &Graph{nodes: map[TargetID]*node{}}
}

// AddTarget registers a target if it is not already present.
func (g *Graph) AddTarget(id TargetID) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// AddEdge records that `to` must exist before `from` runs: from depends
// on to.
func (g *Graph) AddEdge(from, to TargetID) {
	g.AddTarget(from)
	g.AddTarget(to)
	g.nodes[from].deps = append(g.nodes[from].deps, to)
	g.nodes[to].dependents = append(g.nodes[to].dependents, from)
}

// Deps returns the direct predecessors of id.
func (g *Graph) Deps(id TargetID) []TargetID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.deps
}

// Dependents returns the direct targets that depend on id.
func (g *Graph) Dependents(id TargetID) []TargetID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.dependents
}

// Targets returns every registered target in insertion order.
func (g *Graph) Targets() []TargetID {
	return append([]TargetID(nil), g.order...)
}

// Has reports whether id is registered.
func (g *Graph) Has(id TargetID) bool {
	_, ok := g.nodes[id]
	return ok
}

// CycleError is a fatal build-graph error naming the participating
// targets, spec.md §4.5/§7 ("a cycle is a fatal error naming the
// participating modules"), modeled on the teacher's
// internal/link/topo.go CycleError.
type CycleError struct {
	Cycle []TargetID
}

// Error renders the cycle as spec.md §5's scenario 6 does: "module
// cycle: X → Y → X", naming modules rather than target kinds. Every
// cycle the graph can actually produce is entirely within one target
// kind (ast() targets import each other; js()/package_json() targets
// have no inter-target edges), so the bare Name is unambiguous; fall
// back to the fully qualified kind(name) form only if that ever stops
// holding.
func (e *CycleError) Error() string {
	sameKind := true
	for _, t := range e.Cycle {
		if t.Kind != e.Cycle[0].Kind {
			sameKind = false
			break
		}
	}
	parts := make([]string, len(e.Cycle))
	for i, t := range e.Cycle {
		if sameKind {
			parts[i] = t.Name
		} else {
			parts[i] = t.String()
		}
	}
	return fmt.Sprintf("module cycle: %s", strings.Join(parts, " → "))
}

// TopoSort returns targets in dependency order (predecessors first). It
// is a DFS postorder walk with in-path cycle detection, the same shape
// as the teacher's ModuleLinker.TopoSortFromRoot, generalized to start
// from every root in the graph rather than a single one (a build covers
// the whole source tree, not one entry module).
func (g *Graph) TopoSort() ([]TargetID, error) {
	visited := map[TargetID]bool{}
	inPath := map[TargetID]bool{}
	var pathStack []TargetID
	var sorted []TargetID

	var dfs func(id TargetID) error
	dfs = func(id TargetID) error {
		if visited[id] {
			return nil
		}
		if inPath[id] {
			start := 0
			for i, t := range pathStack {
				if t == id {
					start = i
					break
				}
			}
			cycle := append(append([]TargetID(nil), pathStack[start:]...), id)
			return &CycleError{Cycle: cycle}
		}

		inPath[id] = true
		pathStack = append(pathStack, id)

		for _, dep := range g.nodes[id].deps {
			if err := dfs(dep); err != nil {
				return err
			}
		}

		inPath[id] = false
		pathStack = pathStack[:len(pathStack)-1]
		visited[id] = true
		sorted = append(sorted, id)
		return nil
	}

	for _, id := range g.order {
		if err := dfs(id); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
