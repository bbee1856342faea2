package builddriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutorRunASTThenRunJS(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "M.ditto")
	require.NoError(t, os.WriteFile(srcPath, []byte(`module M exports (id);

id = (x) -> x;
`), 0o644))

	buildDir := t.TempDir()
	cache, err := LoadCache(buildDir)
	require.NoError(t, err)

	ex := &Executor{
		BuildDir: buildDir,
		Cache:    cache,
		Sources:  map[string]Source{"M": {Path: srcPath, Module: "M"}},
	}

	skipped, err := ex.RunAST("M")
	require.NoError(t, err)
	require.False(t, skipped)

	astPath, exportsPath, warningsPath := astOutputPaths(buildDir, "M")
	require.FileExists(t, astPath)
	require.FileExists(t, exportsPath)
	require.FileExists(t, warningsPath)

	require.NoError(t, ex.RunJS("M", map[string]string{}))
	js, err := os.ReadFile(jsOutputPath(buildDir, "M"))
	require.NoError(t, err)
	require.Contains(t, string(js), "id")
}

func TestExecutorRunASTSkipsWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "M.ditto")
	require.NoError(t, os.WriteFile(srcPath, []byte(`module M exports (id);

id = (x) -> x;
`), 0o644))

	buildDir := t.TempDir()
	cache, err := LoadCache(buildDir)
	require.NoError(t, err)

	ex := &Executor{
		BuildDir: buildDir,
		Cache:    cache,
		Sources:  map[string]Source{"M": {Path: srcPath, Module: "M"}},
	}

	_, err = ex.RunAST("M")
	require.NoError(t, err)

	// A second Executor sharing the same cache sees an unchanged input
	// and an unchanged source and should skip re-running the checker.
	ex2 := &Executor{
		BuildDir: buildDir,
		Cache:    cache,
		Sources:  map[string]Source{"M": {Path: srcPath, Module: "M"}},
	}
	skipped, err := ex2.RunAST("M")
	require.NoError(t, err)
	require.True(t, skipped)
}

func TestExecutorRunASTFailsOnTypeError(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "M.ditto")
	require.NoError(t, os.WriteFile(srcPath, []byte(`module M exports (..);

bad = if true then 1 else "x";
`), 0o644))

	buildDir := t.TempDir()
	cache, err := LoadCache(buildDir)
	require.NoError(t, err)

	ex := &Executor{
		BuildDir: buildDir,
		Cache:    cache,
		Sources:  map[string]Source{"M": {Path: srcPath, Module: "M"}},
	}

	_, err = ex.RunAST("M")
	require.Error(t, err)
}

// TestExecutorDependentSkipsOnBodyOnlyDependencyEdit is the regression
// test for spec.md §8's "dependency minimality" property and §9's
// central incremental-build claim: rebuilding M's body without changing
// its exported scheme must not invalidate a dependent N's ast() target.
func TestExecutorDependentSkipsOnBodyOnlyDependencyEdit(t *testing.T) {
	dir := t.TempDir()
	mPath := filepath.Join(dir, "M.ditto")
	nPath := filepath.Join(dir, "N.ditto")
	require.NoError(t, os.WriteFile(mPath, []byte(`module M exports (id);

id = (x) -> x;
`), 0o644))
	require.NoError(t, os.WriteFile(nPath, []byte(`module N exports (y);
import M;

y = M.id;
`), 0o644))

	buildDir := t.TempDir()
	cache, err := LoadCache(buildDir)
	require.NoError(t, err)
	sources := map[string]Source{
		"M": {Path: mPath, Module: "M"},
		"N": {Path: nPath, Module: "N"},
	}

	ex := &Executor{BuildDir: buildDir, Cache: cache, Sources: sources}
	_, err = ex.RunAST("M")
	require.NoError(t, err)
	skipped, err := ex.RunAST("N")
	require.NoError(t, err)
	require.False(t, skipped)

	// Body-only edit to M: renames the bound parameter, which does not
	// change id's inferred/canonicalized scheme forall a. (a) -> a.
	require.NoError(t, os.WriteFile(mPath, []byte(`module M exports (id);

id = (y) -> y;
`), 0o644))

	ex2 := &Executor{BuildDir: buildDir, Cache: cache, Sources: sources}
	mSkipped, err := ex2.RunAST("M")
	require.NoError(t, err)
	require.False(t, mSkipped, "M's own body changed, so M must rebuild")

	ex3 := &Executor{BuildDir: buildDir, Cache: cache, Sources: sources}
	nSkipped, err := ex3.RunAST("N")
	require.NoError(t, err)
	require.True(t, nSkipped, "M's exported interface did not change, so N must not rebuild")
}

func TestExecutorRunASTMissingDependencyInterface(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "App.ditto")
	require.NoError(t, os.WriteFile(srcPath, []byte(`module App exports (..);
import Lib;

x = 1;
`), 0o644))

	buildDir := t.TempDir()
	cache, err := LoadCache(buildDir)
	require.NoError(t, err)

	ex := &Executor{
		BuildDir: buildDir,
		Cache:    cache,
		Sources:  map[string]Source{"App": {Path: srcPath, Module: "App"}},
	}

	_, err = ex.RunAST("App")
	require.Error(t, err)
}
