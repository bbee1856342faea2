package builddriver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ast(name string) TargetID { return TargetID{Kind: KindAST, Name: name} }

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ast("App"), ast("Lib"))
	g.AddEdge(ast("Lib"), ast("Core"))
	g.AddTarget(ast("Unrelated"))

	sorted, err := g.TopoSort()
	require.NoError(t, err)

	pos := map[TargetID]int{}
	for i, id := range sorted {
		pos[id] = i
	}
	require.Less(t, pos[ast("Core")], pos[ast("Lib")])
	require.Less(t, pos[ast("Lib")], pos[ast("App")])
	require.Contains(t, pos, ast("Unrelated"))
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ast("A"), ast("B"))
	g.AddEdge(ast("B"), ast("C"))
	g.AddEdge(ast("C"), ast("A"))

	_, err := g.TopoSort()
	require.Error(t, err)

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	require.NotEmpty(t, cerr.Cycle)
	// spec.md §5 scenario 5 names bare modules, not target kinds.
	require.NotContains(t, cerr.Error(), "ast(")
	require.Contains(t, cerr.Error(), "→")
}

func TestGraphDepsAndDependents(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ast("App"), ast("Lib"))

	require.Equal(t, []TargetID{ast("Lib")}, g.Deps(ast("App")))
	require.Equal(t, []TargetID{ast("App")}, g.Dependents(ast("Lib")))
	require.Empty(t, g.Deps(ast("Lib")))
	require.True(t, g.Has(ast("App")))
	require.False(t, g.Has(ast("Nope")))
}

func TestTargetIDString(t *testing.T) {
	require.Equal(t, "ast(Data.Maybe)", TargetID{Kind: KindAST, Name: "Data.Maybe"}.String())
	require.Equal(t, "js(Data.Maybe)", TargetID{Kind: KindJS, Name: "Data.Maybe"}.String())
	require.Equal(t, "package_json(core)", TargetID{Kind: KindPackageJSON, Name: "core"}.String())
}
