package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/cst"
	"github.com/dittolang/ditto/internal/iface"
	"github.com/dittolang/ditto/internal/types"
)

func mustCheck(t *testing.T, src string, imports map[ImportRef]*iface.ExportInterface) (*Result, error) {
	t.Helper()
	f, err := cst.Parse(src, "M.ditto")
	require.NoError(t, err)
	m := ast.Lower(f)
	if imports == nil {
		imports = map[ImportRef]*iface.ExportInterface{}
	}
	return Check(m, imports)
}

func TestCheckIdentityFunctionGeneralizes(t *testing.T) {
	res, err := mustCheck(t, `module M exports (id);

id = (x) -> x;
`, nil)
	require.NoError(t, err)
	sch, ok := res.Exports.FindValue("id")
	require.True(t, ok)
	require.Len(t, sch.Vars, 1)

	fn, ok := sch.Body.(*types.TFunc)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	assert.True(t, fn.Params[0].Equals(fn.Return))
}

func TestCheckDuplicateNameIsFatal(t *testing.T) {
	_, err := mustCheck(t, `module M exports (..);

x = 1;
x = 2;
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	assert.Equal(t, "MOD001", cerr.Reports[0].Code)
}

func TestCheckUnresolvedNameSuggestsNearest(t *testing.T) {
	_, err := mustCheck(t, `module M exports (..);

total = 1;
bad = totall;
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	rep := cerr.Reports[0]
	assert.Equal(t, "MOD002", rep.Code)
	require.NotNil(t, rep.Fix)
	assert.Equal(t, "total", rep.Fix.Suggestion)
}

func TestCheckIfBranchMismatchFails(t *testing.T) {
	_, err := mustCheck(t, `module M exports (..);

bad = if true then 1 else "x";
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	assert.Equal(t, "TYP001", cerr.Reports[0].Code)
}

func TestCheckOccursCheckFails(t *testing.T) {
	// A function that applies itself to itself has no finite type.
	_, err := mustCheck(t, `module M exports (..);

loop = (x) -> x(x);
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	assert.Equal(t, "TYP002", cerr.Reports[0].Code)
}

func TestCheckTypeConstructorArityMismatch(t *testing.T) {
	_, err := mustCheck(t, `module M exports (..);

type Box(a) = MkBox(a);

bad : Box = MkBox(1);
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	var found bool
	for _, r := range cerr.Reports {
		if r.Code == "TYP004" {
			found = true
		}
	}
	assert.True(t, found, "expected a kind-mismatch report, got %+v", cerr.Reports)
}

func TestCheckRedundantAnnotationWarns(t *testing.T) {
	res, err := mustCheck(t, `module M exports (one);

one : Int = 1;
`, nil)
	require.NoError(t, err)
	var found bool
	for _, w := range res.Warnings {
		if w.Code == "TYP005" {
			found = true
		}
	}
	assert.True(t, found, "expected a redundant-annotation warning, got %+v", res.Warnings)
}

func TestCheckUnusedBindingWarns(t *testing.T) {
	res, err := mustCheck(t, `module M exports (used);

used = 1;
unused = 2;
`, nil)
	require.NoError(t, err)
	var found bool
	for _, w := range res.Warnings {
		if w.Code == "MOD007" {
			found = true
		}
	}
	assert.True(t, found, "expected an unused-binding warning, got %+v", res.Warnings)
}

func TestCheckExportAllIncludesTypesAndCtors(t *testing.T) {
	res, err := mustCheck(t, `module M exports (..);

type Maybe(a) = Nothing | Just(a);

wrapped = Just(1);
`, nil)
	require.NoError(t, err)
	_, ok := res.Exports.FindType("Maybe")
	require.True(t, ok)
	ctor, ok := res.Exports.FindConstructor("Just")
	require.True(t, ok)
	assert.Equal(t, "Maybe", ctor.TypeName)
}

func TestCheckExportUnknownNameFails(t *testing.T) {
	_, err := mustCheck(t, `module M exports (nope);

x = 1;
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	assert.Equal(t, "MOD004", cerr.Reports[0].Code)
}

func TestCheckCrossModuleImportResolvesAndUnusedWarns(t *testing.T) {
	dep := iface.New("Dep")
	dep.AddValue("answer", types.Mono(types.TInt))
	dep.AddValue("greeting", types.Mono(types.TString))

	imports := map[ImportRef]*iface.ExportInterface{
		{Module: "Dep"}: dep,
	}

	res, err := mustCheck(t, `module M exports (..);

import Dep exposing (answer, greeting);

used = answer;
`, imports)
	require.NoError(t, err)

	sch, ok := res.Exports.FindValue("used")
	require.True(t, ok)
	assert.True(t, sch.Body.Equals(types.TInt))

	var found bool
	for _, w := range res.Warnings {
		if w.Code == "MOD006" {
			found = true
		}
	}
	assert.True(t, found, "expected greeting to be reported unused, got %+v", res.Warnings)
}

func TestCheckMissingImportInterfaceIsFatal(t *testing.T) {
	_, err := mustCheck(t, `module M exports (..);

import Dep exposing (answer);

used = answer;
`, nil)
	require.Error(t, err)
	cerr, ok := err.(*Errors)
	require.True(t, ok)
	require.NotEmpty(t, cerr.Reports)
	assert.Equal(t, "BLD001", cerr.Reports[0].Code)
}

func TestCheckQualifiedReferenceDoesNotRequireExposing(t *testing.T) {
	dep := iface.New("Dep")
	dep.AddValue("answer", types.Mono(types.TInt))

	imports := map[ImportRef]*iface.ExportInterface{
		{Module: "Dep"}: dep,
	}

	res, err := mustCheck(t, `module M exports (..);

import Dep;

used = Dep.answer;
`, imports)
	require.NoError(t, err)
	sch, ok := res.Exports.FindValue("used")
	require.True(t, ok)
	assert.True(t, sch.Body.Equals(types.TInt))
}
