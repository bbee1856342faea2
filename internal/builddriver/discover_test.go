package builddriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestDiscoverBuildsDependencyEdges(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "core.ditto", "module Core exports (..);\n")
	writeSource(t, dir, "lib.ditto", "module Lib exports (..);\nimport Core;\n")
	writeSource(t, dir, "app.ditto", "module App exports (..);\nimport Lib;\n")

	disc, err := Discover([]string{dir})
	require.NoError(t, err)

	require.Len(t, disc.Sources, 3)
	require.Equal(t, []TargetID{ast("Core")}, disc.Graph.Deps(ast("Lib")))
	require.Equal(t, []TargetID{ast("Lib")}, disc.Graph.Deps(ast("App")))

	sorted, err := disc.Graph.TopoSort()
	require.NoError(t, err)
	pos := map[TargetID]int{}
	for i, id := range sorted {
		pos[id] = i
	}
	require.Less(t, pos[ast("Core")], pos[ast("Lib")])
	require.Less(t, pos[ast("Lib")], pos[ast("App")])
}

func TestDiscoverSkipsExternalPackageImports(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "app.ditto", "module App exports (..);\nimport (core) Prelude;\n")

	disc, err := Discover([]string{dir})
	require.NoError(t, err)

	require.Empty(t, disc.Graph.Deps(ast("App")))
	require.Len(t, disc.Imports["App"], 1)
	require.Equal(t, "core", disc.Imports["App"][0].Package)
}

func TestDiscoverRejectsDuplicateModuleName(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.ditto", "module Dup exports (..);\n")
	writeSource(t, dir, "b.ditto", "module Dup exports (..);\n")

	_, err := Discover([]string{dir})
	require.Error(t, err)
}
