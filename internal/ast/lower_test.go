package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dittolang/ditto/internal/cst"
)

func mustLower(t *testing.T, src string) *Module {
	t.Helper()
	f, err := cst.Parse(src, "test.ditto")
	require.NoError(t, err)
	return Lower(f)
}

func TestLowerExportAllFlag(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

main = 1;
`)
	require.True(t, m.ExportAll)
	require.Empty(t, m.ExportItems)
}

func TestLowerExplicitExportsAndTypeCtors(t *testing.T) {
	m := mustLower(t, `module Main exports (main, Maybe(..));

type Maybe(a) = Nothing | Just(a);

main = 1;
`)
	require.False(t, m.ExportAll)
	require.Len(t, m.ExportItems, 2)
	require.Equal(t, "Maybe", m.ExportItems[1].Name)
	require.True(t, m.ExportItems[1].IsType)
	require.True(t, m.ExportItems[1].AllCtors)
}

func TestLowerImportAliasDefaultsToLastSegment(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

import Data.List;

main = 1;
`)
	require.Len(t, m.Imports, 1)
	require.Equal(t, "List", m.Imports[0].Alias)
	require.Equal(t, "Data.List", m.Imports[0].Module)
}

func TestLowerImportExplicitAliasWins(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

import Data.List as L;

main = 1;
`)
	require.Equal(t, "L", m.Imports[0].Alias)
}

func TestLowerQualifiedVarAndCtorRefs(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

import Data.Maybe as M;

main = if M.isJust(M.Just(1)) then 1 else 0;
`)
	require.Len(t, m.Values, 1)
	ifExpr, ok := m.Values[0].RHS.(*If)
	require.True(t, ok)
	app, ok := ifExpr.Cond.(*App)
	require.True(t, ok)
	callee, ok := app.Callee.(*Var)
	require.True(t, ok)
	require.Equal(t, "M", callee.Name.Qualifier)
	require.Equal(t, "isJust", callee.Name.Name)

	inner, ok := app.Args[0].(*App)
	require.True(t, ok)
	ctor, ok := inner.Callee.(*ConstructorRef)
	require.True(t, ok)
	require.Equal(t, "M", ctor.Name.Qualifier)
	require.Equal(t, "Just", ctor.Name.Name)
}

func TestLowerStripsParens(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

main = (1);
`)
	_, ok := m.Values[0].RHS.(*Literal)
	require.True(t, ok, "parenthesization must be stripped by lowering")
}

func TestLowerNaryFuncLitAndApp(t *testing.T) {
	m := mustLower(t, `module Main exports (..);

add = (x, y) -> x;

main = add(1, 2);
`)
	fn, ok := m.Values[0].RHS.(*FuncLit)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)

	app, ok := m.Values[1].RHS.(*App)
	require.True(t, ok)
	require.Len(t, app.Args, 2)
}
