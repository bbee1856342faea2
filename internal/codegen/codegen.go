// Package codegen turns one elaborated module into JavaScript module
// text (spec.md §4.4). It is a pure function of the AST and a caller-
// supplied import-path map; it performs no I/O and makes no decisions
// about where a module's output file lives on disk (that is the build
// driver's job — see internal/builddriver).
package codegen

import (
	"fmt"
	"strings"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/errors"
)

// Options supplies everything the build driver knows that codegen
// itself cannot derive from the AST alone.
type Options struct {
	// ImportPaths maps each import's alias to the relative JS module
	// path the build driver computed for it.
	ImportPaths map[string]string
}

// generator holds the small amount of state that accumulates while
// walking one module's declarations (mirrors internal/ast/print.go's
// single-pass strings.Builder shape).
type generator struct {
	usesUnit bool
}

// Generate renders m as a single ES module. Every import alias m
// declares must have an entry in opts.ImportPaths; a missing one is a
// caller error, not a compiler diagnostic, since the build driver is
// responsible for having resolved the graph before invoking codegen.
func Generate(m *ast.Module, opts Options) (string, error) {
	if err := checkFullyResolved(m); err != nil {
		return "", err
	}

	g := &generator{}
	values, ctors := exportedNames(m)

	var body strings.Builder
	for _, t := range m.Types {
		for _, c := range t.Ctors {
			body.WriteString(g.genCtor(c, ctors[c.Name]))
		}
	}
	for _, v := range m.Values {
		body.WriteString(g.genValue(v, values[v.Name]))
	}

	var out strings.Builder
	for _, imp := range m.Imports {
		path, ok := opts.ImportPaths[imp.Alias]
		if !ok {
			return "", fmt.Errorf("codegen: no import path supplied for alias %q", imp.Alias)
		}
		fmt.Fprintf(&out, "import * as %s from %q;\n", imp.Alias, path)
	}
	if len(m.Foreigns) > 0 {
		names := make([]string, len(m.Foreigns))
		for i, f := range m.Foreigns {
			names[i] = f.Name
		}
		fmt.Fprintf(&out, "import { %s } from %q;\n", strings.Join(names, ", "), foreignPath(m.Name))
	}
	if len(m.Imports) > 0 || len(m.Foreigns) > 0 {
		out.WriteString("\n")
	}
	if g.usesUnit {
		out.WriteString("const Unit = Object.freeze({});\n\n")
	}
	out.WriteString(body.String())

	return out.String(), nil
}

// foreignPath is the sibling ./<Module>.foreign.js the host runtime
// provides foreign implementations from (spec.md §4.4).
func foreignPath(moduleName string) string {
	segs := strings.Split(moduleName, ".")
	return "./" + segs[len(segs)-1] + ".foreign.js"
}

// exportedNames computes which value and constructor names m's export
// list makes public, the same walk internal/checker/exports.go performs
// over the module's ExportAll flag or ExportItems list, reimplemented
// here so codegen stays a pure function of the AST alone.
func exportedNames(m *ast.Module) (values, ctors map[string]bool) {
	values = map[string]bool{}
	ctors = map[string]bool{}
	if m.ExportAll {
		for _, v := range m.Values {
			values[v.Name] = true
		}
		for _, t := range m.Types {
			for _, c := range t.Ctors {
				ctors[c.Name] = true
			}
		}
		return values, ctors
	}
	for _, item := range m.ExportItems {
		if !item.IsType {
			values[item.Name] = true
			continue
		}
		if !item.AllCtors {
			continue
		}
		for _, t := range m.Types {
			if t.Name != item.Name {
				continue
			}
			for _, c := range t.Ctors {
				ctors[c.Name] = true
			}
		}
	}
	return values, ctors
}

// genCtor emits one data constructor: a frozen tagged object for a
// nullary constructor, a factory function for an n-ary one (spec.md
// §4.4: "{ $: "CtorName", _0, _1, … }").
func (g *generator) genCtor(c ast.DataCtor, exported bool) string {
	kw := ""
	if exported {
		kw = "export "
	}
	if len(c.Args) == 0 {
		return fmt.Sprintf("%sconst %s = Object.freeze({ $: %q });\n\n", kw, c.Name, c.Name)
	}
	fields := make([]string, len(c.Args))
	for i := range c.Args {
		fields[i] = fmt.Sprintf("_%d", i)
	}
	return fmt.Sprintf("%sfunction %s(%s) { return { $: %q, %s }; }\n\n",
		kw, c.Name, strings.Join(fields, ", "), c.Name, strings.Join(fields, ", "))
}

func (g *generator) genValue(v *ast.ValueDecl, exported bool) string {
	prefix := "const"
	if exported {
		prefix = "export const"
	}
	return fmt.Sprintf("%s %s = %s;\n\n", prefix, v.Name, g.genExpr(v.RHS))
}

func (g *generator) genExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.LitUnit:
			g.usesUnit = true
			return "Unit"
		case ast.LitBool:
			return v.Value
		case ast.LitInt, ast.LitFloat:
			return strings.ReplaceAll(v.Value, "_", "")
		case ast.LitString:
			return fmt.Sprintf("%q", v.Value)
		default:
			return "undefined"
		}
	case *ast.Var:
		return jsName(v.Resolved)
	case *ast.ConstructorRef:
		return jsName(v.Resolved)
	case *ast.ArrayLit:
		elems := make([]string, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = g.genExpr(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *ast.FuncLit:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = p.Name
		}
		return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), g.genExpr(v.Body))
	case *ast.App:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = g.genExpr(a)
		}
		return fmt.Sprintf("%s(%s)", g.genExpr(v.Callee), strings.Join(args, ", "))
	case *ast.If:
		return fmt.Sprintf("(%s ? %s : %s)", g.genExpr(v.Cond), g.genExpr(v.Then), g.genExpr(v.Else))
	default:
		return "undefined"
	}
}

func jsName(q ast.QName) string {
	if q.Qualifier == "" {
		return q.Name
	}
	return q.Qualifier + "." + q.Name
}

// checkFullyResolved guards the internal invariant spec.md §7 calls out
// by name: "unresolved name survives to codegen" is a compiler bug, not
// a user error, and must abort loudly rather than emit broken JS.
func checkFullyResolved(m *ast.Module) error {
	var bad *ast.Pos
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if bad != nil {
			return
		}
		switch v := e.(type) {
		case *ast.Var:
			if v.Resolved.Name == "" {
				p := v.Pos
				bad = &p
			}
		case *ast.ConstructorRef:
			if v.Resolved.Name == "" {
				p := v.Pos
				bad = &p
			}
		case *ast.ArrayLit:
			for _, el := range v.Elems {
				walk(el)
			}
		case *ast.FuncLit:
			walk(v.Body)
		case *ast.App:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.If:
			walk(v.Cond)
			walk(v.Then)
			walk(v.Else)
		}
	}
	for _, v := range m.Values {
		walk(v.RHS)
		if bad != nil {
			return errors.Wrap(errors.New(errors.PhaseCodegen, errors.GenUnresolvedSurvived,
				fmt.Sprintf("internal error: unresolved name reached codegen in %q", v.Name),
				&errors.Span{File: bad.File, StartLine: bad.Line, StartColumn: bad.Column, StartOffset: bad.Offset}))
		}
	}
	return nil
}
