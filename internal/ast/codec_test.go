package ast

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/dittolang/ditto/internal/types"
)

func samplePos(line int) Pos {
	return Pos{File: "Data/Maybe.ditto", Line: line, Column: 1, Offset: line * 10}
}

func sampleModule() *Module {
	intLit := &Literal{Kind: LitInt, Value: "1", Pos: samplePos(3)}
	intLit.SetExprType(types.TInt)

	v := &Var{Name: QName{Name: "x"}, Resolved: QName{Name: "x"}, Pos: samplePos(4)}
	v.SetExprType(types.TInt)

	app := &App{Callee: v, Args: []Expr{intLit}, Pos: samplePos(5)}
	app.SetExprType(types.TInt)

	ifE := &If{
		Cond: intLit,
		Then: v,
		Else: app,
		Pos:  samplePos(6),
	}
	ifE.SetExprType(types.TInt)

	fn := &FuncLit{
		Params: []FuncParam{
			{Name: "x", Annotation: &TEVar{Name: "a", Pos: samplePos(1)}, Pos: samplePos(1)},
		},
		ReturnType: &TECon{Name: QName{Name: "Maybe"}, Args: []TypeExpr{&TEVar{Name: "a", Pos: samplePos(1)}}, Pos: samplePos(1)},
		Body:       ifE,
		Pos:        samplePos(2),
	}
	fn.SetExprType(&types.TFunc{Params: []types.Type{types.TInt}, Return: types.TInt})

	return &Module{
		Name:      "Data.Maybe",
		ExportAll: false,
		ExportItems: []ExportItem{
			{Name: "isJust", Pos: samplePos(1)},
			{Name: "Maybe", IsType: true, AllCtors: true, Pos: samplePos(1)},
		},
		Imports: []*Import{
			{Module: "Data.List", Alias: "List", ExposeAll: true, Pos: samplePos(1)},
			{Package: "core", Module: "Prelude", Alias: "P", Exposed: []string{"id", "const"}, Pos: samplePos(1)},
		},
		Types: []*TypeDecl{
			{
				Name:   "Maybe",
				Params: []string{"a"},
				Ctors: []DataCtor{
					{Name: "Just", Args: []TypeExpr{&TEVar{Name: "a", Pos: samplePos(1)}}, Pos: samplePos(1)},
					{Name: "Nothing", Pos: samplePos(1)},
				},
				Pos: samplePos(1),
			},
		},
		Values: []*ValueDecl{
			{Name: "identity", RHS: fn, Pos: samplePos(2)},
		},
		Foreigns: []*ForeignDecl{
			{Name: "jsNow", Annotation: &TEFunc{Params: nil, Return: &TECon{Name: QName{Name: "Int"}, Pos: samplePos(8)}, Pos: samplePos(8)}, Pos: samplePos(8)},
		},
		Pos: samplePos(0),
	}
}

func TestEncodeDecodeModuleRoundTrip(t *testing.T) {
	m := sampleModule()

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	got, err := DecodeModule(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(m, got, cmp.AllowUnexported(exprBase{}), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeModuleRejectsBadMagic(t *testing.T) {
	_, err := DecodeModule(bytes.NewReader([]byte("definitely not a module")))
	require.Error(t, err)
	var verr *VersionError
	require.ErrorAs(t, err, &verr)
}

func TestDecodeModuleRejectsTruncatedInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, sampleModule()))

	truncated := buf.Bytes()[:len(buf.Bytes())/2]
	_, err := DecodeModule(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestEncodeModuleRoundTripsEmptyModule(t *testing.T) {
	m := &Module{Name: "Empty", Pos: samplePos(0)}

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	got, err := DecodeModule(&buf)
	require.NoError(t, err)
	require.Equal(t, "Empty", got.Name)
	require.Empty(t, got.Imports)
	require.Empty(t, got.Types)
	require.Empty(t, got.Values)
	require.Empty(t, got.Foreigns)
}
