package ast

import (
	"strings"

	"github.com/dittolang/ditto/internal/cst"
)

// Lower desugars a parsed CST into an AST. Lowering is total and never
// fails (spec.md §4.2): every CST produced by a successful cst.Parse
// lowers to a Module.
func Lower(f *cst.File) *Module {
	m := &Module{
		Name: f.Module.Name.String(),
		Pos:  f.Module.Pos,
	}

	if f.Module.Exports.All {
		m.ExportAll = true
	} else {
		for _, item := range f.Module.Exports.Items {
			m.ExportItems = append(m.ExportItems, ExportItem{
				Name:     item.Name,
				IsType:   item.IsType,
				AllCtors: item.AllCtors,
				Pos:      item.Pos,
			})
		}
	}

	for _, imp := range f.Imports {
		m.Imports = append(m.Imports, lowerImport(imp))
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *cst.TypeDecl:
			m.Types = append(m.Types, lowerTypeDecl(d))
		case *cst.ValueDecl:
			m.Values = append(m.Values, lowerValueDecl(d))
		case *cst.ForeignDecl:
			m.Foreigns = append(m.Foreigns, lowerForeignDecl(d))
		}
	}

	return m
}

func lowerImport(imp *cst.Import) *Import {
	modulePath := imp.Module.String()
	alias := imp.Alias
	if alias == "" {
		segs := imp.Module.Segments
		alias = segs[len(segs)-1]
	}

	out := &Import{
		Package: imp.Package,
		Module:  modulePath,
		Alias:   alias,
		Pos:     imp.Pos,
	}
	if imp.Exposing != nil {
		if imp.Exposing.All {
			out.ExposeAll = true
		} else {
			out.Exposed = append([]string(nil), imp.Exposing.Names...)
		}
	}
	return out
}

func lowerTypeDecl(d *cst.TypeDecl) *TypeDecl {
	out := &TypeDecl{
		Name:   d.Name,
		Params: append([]string(nil), d.Params...),
		Pos:    d.Pos,
	}
	for _, c := range d.Ctors {
		dc := DataCtor{Name: c.Name, Pos: c.Pos}
		for _, a := range c.Args {
			dc.Args = append(dc.Args, lowerTypeExpr(a))
		}
		out.Ctors = append(out.Ctors, dc)
	}
	return out
}

func lowerValueDecl(d *cst.ValueDecl) *ValueDecl {
	out := &ValueDecl{
		Name: d.Name,
		RHS:  lowerExpr(d.RHS),
		Pos:  d.Pos,
	}
	if d.Annotation != nil {
		out.Annotation = lowerTypeExpr(d.Annotation)
	}
	return out
}

func lowerForeignDecl(d *cst.ForeignDecl) *ForeignDecl {
	return &ForeignDecl{
		Name:       d.Name,
		Annotation: lowerTypeExpr(d.Annotation),
		Pos:        d.Pos,
	}
}

// lowerTypeExpr strips parenthesization and collapses qualified-name
// pairs, recursively.
func lowerTypeExpr(t cst.TypeExpr) TypeExpr {
	switch v := t.(type) {
	case *cst.TypeParen:
		return lowerTypeExpr(v.Inner)
	case *cst.TypeVar:
		return &TEVar{Name: v.Name, Pos: v.Pos}
	case *cst.TypeCon:
		out := &TECon{Name: QName{Qualifier: v.Qualifier, Name: v.Name}, Pos: v.Pos}
		for _, a := range v.Args {
			out.Args = append(out.Args, lowerTypeExpr(a))
		}
		return out
	case *cst.TypeFunc:
		out := &TEFunc{Return: lowerTypeExpr(v.Return), Pos: v.Pos}
		for _, p := range v.Params {
			out.Params = append(out.Params, lowerTypeExpr(p))
		}
		return out
	default:
		panic("ast.lowerTypeExpr: unhandled cst.TypeExpr node")
	}
}

// lowerExpr strips parenthesization and normalizes references,
// recursively.
func lowerExpr(e cst.Expr) Expr {
	switch v := e.(type) {
	case *cst.Paren:
		return lowerExpr(v.Inner)
	case *cst.Literal:
		return &Literal{Kind: v.Kind, Value: v.Value, Pos: v.Pos}
	case *cst.Var:
		name := QName{Qualifier: v.Qualifier, Name: v.Name}
		return &Var{Name: name, Pos: v.Pos}
	case *cst.Ctor:
		name := QName{Qualifier: v.Qualifier, Name: v.Name}
		return &ConstructorRef{Name: name, Pos: v.Pos}
	case *cst.Array:
		out := &ArrayLit{Pos: v.Pos}
		for _, el := range v.Elems {
			out.Elems = append(out.Elems, lowerExpr(el))
		}
		return out
	case *cst.FuncLit:
		out := &FuncLit{Body: lowerExpr(v.Body), Pos: v.Pos}
		for _, p := range v.Params {
			fp := FuncParam{Name: p.Name, Pos: p.Pos}
			if p.Annotation != nil {
				fp.Annotation = lowerTypeExpr(p.Annotation)
			}
			out.Params = append(out.Params, fp)
		}
		if v.ReturnType != nil {
			out.ReturnType = lowerTypeExpr(v.ReturnType)
		}
		return out
	case *cst.App:
		out := &App{Callee: lowerExpr(v.Callee), Pos: v.Pos}
		for _, a := range v.Args {
			out.Args = append(out.Args, lowerExpr(a))
		}
		return out
	case *cst.If:
		return &If{Cond: lowerExpr(v.Cond), Then: lowerExpr(v.Then), Else: lowerExpr(v.Else), Pos: v.Pos}
	default:
		panic("ast.lowerExpr: unhandled cst.Expr node")
	}
}

// ModuleFromPath converts a filesystem-style module path ("Data/Maybe")
// into the dotted form used as Module.Name ("Data.Maybe").
func ModuleFromPath(path string) string {
	return strings.ReplaceAll(path, "/", ".")
}
