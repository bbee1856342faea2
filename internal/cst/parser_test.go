package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityModule(t *testing.T) {
	src := `module M exports (id);
id = (x) -> x;
`
	f, err := Parse(src, "M.ditto")
	require.NoError(t, err)
	require.NotNil(t, f.Module)
	assert.Equal(t, "M", f.Module.Name.String())
	assert.False(t, f.Module.Exports.All)
	require.Len(t, f.Module.Exports.Items, 1)
	assert.Equal(t, "id", f.Module.Exports.Items[0].Name)

	require.Len(t, f.Decls, 1)
	vd := f.Decls[0].(*ValueDecl)
	assert.Equal(t, "id", vd.Name)
	fl := vd.RHS.(*FuncLit)
	require.Len(t, fl.Params, 1)
	assert.Equal(t, "x", fl.Params[0].Name)
	assert.IsType(t, &Var{}, fl.Body)
}

func TestParseImportWithQualifierAliasAndExposing(t *testing.T) {
	src := `module B exports (y);
import (mypackage) A as Foo exposing (x);
y = Foo.x;
`
	f, err := Parse(src, "B.ditto")
	require.NoError(t, err)
	require.Len(t, f.Imports, 1)
	imp := f.Imports[0]
	assert.Equal(t, "mypackage", imp.Package)
	assert.Equal(t, "A", imp.Module.String())
	assert.Equal(t, "Foo", imp.Alias)
	require.NotNil(t, imp.Exposing)
	assert.Equal(t, []string{"x"}, imp.Exposing.Names)

	vd := f.Decls[0].(*ValueDecl)
	v := vd.RHS.(*Var)
	assert.Equal(t, "Foo", v.Qualifier)
	assert.Equal(t, "x", v.Name)
}

func TestParseTypeDeclWithConstructors(t *testing.T) {
	src := `module Maybe exports (Maybe(..), j);
type Maybe(a) = Nothing | Just(a);
j = Just(1);
`
	f, err := Parse(src, "Maybe.ditto")
	require.NoError(t, err)
	td := f.Decls[0].(*TypeDecl)
	assert.Equal(t, "Maybe", td.Name)
	assert.Equal(t, []string{"a"}, td.Params)
	require.Len(t, td.Ctors, 2)
	assert.Equal(t, "Nothing", td.Ctors[0].Name)
	assert.Equal(t, "Just", td.Ctors[1].Name)
	require.Len(t, td.Ctors[1].Args, 1)

	vd := f.Decls[1].(*ValueDecl)
	app := vd.RHS.(*App)
	ctor := app.Callee.(*Ctor)
	assert.Equal(t, "Just", ctor.Name)
	require.Len(t, app.Args, 1)
}

func TestParseForeignDecl(t *testing.T) {
	src := `module Html exports (h);
foreign h : (String) -> Html(msg);
`
	f, err := Parse(src, "Html.ditto")
	require.NoError(t, err)
	fd := f.Decls[0].(*ForeignDecl)
	assert.Equal(t, "h", fd.Name)
	tf := fd.Annotation.(*TypeFunc)
	require.Len(t, tf.Params, 1)
	ret := tf.Return.(*TypeCon)
	assert.Equal(t, "Html", ret.Name)
}

func TestParseIfThenElse(t *testing.T) {
	src := `module M exports (bad);
bad = if true then 1 else 2;
`
	f, err := Parse(src, "M.ditto")
	require.NoError(t, err)
	vd := f.Decls[0].(*ValueDecl)
	ifE := vd.RHS.(*If)
	lit := ifE.Cond.(*Literal)
	assert.Equal(t, LitBool, lit.Kind)
}

func TestParseFailsWithoutPartialAccept(t *testing.T) {
	src := `module M exports (x)
x = 1;
`
	f, err := Parse(src, "M.ditto")
	require.Error(t, err)
	require.Nil(t, f)
}

func TestParseArrayLiteral(t *testing.T) {
	src := `module M exports (xs);
xs = [1, 2, 3];
`
	f, err := Parse(src, "M.ditto")
	require.NoError(t, err)
	vd := f.Decls[0].(*ValueDecl)
	arr := vd.RHS.(*Array)
	assert.Len(t, arr.Elems, 3)
}

func TestParseNestedApplication(t *testing.T) {
	src := `module M exports (r);
r = compose(f)(g);
`
	f, err := Parse(src, "M.ditto")
	require.NoError(t, err)
	vd := f.Decls[0].(*ValueDecl)
	outer := vd.RHS.(*App)
	inner := outer.Callee.(*App)
	assert.IsType(t, &Var{}, inner.Callee)
}
