package builddriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriverBuildEndToEnd(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "Core.ditto", `module Core exports (one);

one = 1;
`)
	writeSource(t, srcDir, "App.ditto", `module App exports (two);
import Core;

two = Core.one;
`)

	buildDir := t.TempDir()
	d := New(Options{Roots: []string{srcDir}, BuildDir: buildDir, Workers: 2})

	summary, err := d.Build()
	require.NoError(t, err)
	require.Equal(t, 2, summary.ModulesBuilt)
	require.Equal(t, 0, summary.ModulesSkipped)
	require.NotEmpty(t, summary.RunID)

	require.FileExists(t, filepath.Join(buildDir, "Core.js"))
	require.FileExists(t, filepath.Join(buildDir, "App.js"))
}

func TestDriverBuildIsIncrementalOnSecondRun(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "Core.ditto", `module Core exports (one);

one = 1;
`)

	buildDir := t.TempDir()
	opts := Options{Roots: []string{srcDir}, BuildDir: buildDir, Workers: 1}

	_, err := New(opts).Build()
	require.NoError(t, err)

	summary, err := New(opts).Build()
	require.NoError(t, err)
	require.Equal(t, 0, summary.ModulesBuilt)
	require.Equal(t, 1, summary.ModulesSkipped)
}

func TestDriverBuildSkipsDependentOnBodyOnlyEdit(t *testing.T) {
	srcDir := t.TempDir()
	corePath := filepath.Join(srcDir, "Core.ditto")
	require.NoError(t, writeFileHelper(corePath, `module Core exports (one);

one = 1;
`))
	writeSource(t, srcDir, "App.ditto", `module App exports (two);
import Core;

two = Core.one;
`)

	buildDir := t.TempDir()
	opts := Options{Roots: []string{srcDir}, BuildDir: buildDir, Workers: 2}

	_, err := New(opts).Build()
	require.NoError(t, err)

	// Body-only edit: a different literal value, same exported scheme
	// (Int, unchanged). App's ast() must be skipped on the next build.
	require.NoError(t, writeFileHelper(corePath, `module Core exports (one);

one = 2;
`))

	summary, err := New(opts).Build()
	require.NoError(t, err)
	require.Equal(t, 1, summary.ModulesBuilt, "only Core should rebuild")
	require.Equal(t, 1, summary.ModulesSkipped, "App's ast() must not rebuild")
}

func writeFileHelper(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestDriverBuildRejectsCycle(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "A.ditto", `module A exports (..);
import B;

x = 1;
`)
	writeSource(t, srcDir, "B.ditto", `module B exports (..);
import A;

y = 1;
`)

	buildDir := t.TempDir()
	_, err := New(Options{Roots: []string{srcDir}, BuildDir: buildDir}).Build()
	require.Error(t, err)

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
}

func TestDriverSummaryString(t *testing.T) {
	s := Summary{RunID: "r1", ModulesBuilt: 2, ModulesSkipped: 1, BytesWritten: 1024}
	require.Contains(t, s.String(), "r1")
	require.Contains(t, s.String(), "2 module(s) built")
}
