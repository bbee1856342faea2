package ast

import (
	"fmt"
	"strings"
)

// Print renders a Module back to source text. It is not required to
// reproduce the original formatting (trivia lives only in the CST) but
// must reparse and lower to a Module equal to the one printed (spec.md
// §8's round-trip property): parse(print(m)) lowers to m, modulo
// positions.
func Print(m *Module) string {
	var b strings.Builder

	fmt.Fprintf(&b, "module %s exports %s;\n\n", m.Name, printExports(m))

	for _, imp := range m.Imports {
		b.WriteString(printImport(imp))
		b.WriteString("\n")
	}
	if len(m.Imports) > 0 {
		b.WriteString("\n")
	}

	for _, t := range m.Types {
		b.WriteString(printTypeDecl(t))
		b.WriteString("\n\n")
	}
	for _, f := range m.Foreigns {
		b.WriteString(printForeignDecl(f))
		b.WriteString("\n\n")
	}
	for _, v := range m.Values {
		b.WriteString(printValueDecl(v))
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func printExports(m *Module) string {
	if m.ExportAll {
		return "(..)"
	}
	items := make([]string, len(m.ExportItems))
	for i, it := range m.ExportItems {
		switch {
		case it.IsType && it.AllCtors:
			items[i] = it.Name + "(..)"
		default:
			items[i] = it.Name
		}
	}
	return "(" + strings.Join(items, ", ") + ")"
}

func printImport(imp *Import) string {
	var b strings.Builder
	b.WriteString("import ")
	if imp.Package != "" {
		fmt.Fprintf(&b, "(%s) ", imp.Package)
	}
	b.WriteString(imp.Module)
	fmt.Fprintf(&b, " as %s", imp.Alias)
	if imp.ExposeAll {
		b.WriteString(" exposing (..)")
	} else if len(imp.Exposed) > 0 {
		fmt.Fprintf(&b, " exposing (%s)", strings.Join(imp.Exposed, ", "))
	}
	b.WriteString(";")
	return b.String()
}

func printTypeDecl(t *TypeDecl) string {
	var b strings.Builder
	b.WriteString("type ")
	b.WriteString(t.Name)
	if len(t.Params) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(t.Params, ", "))
	}
	b.WriteString(" =")
	for i, c := range t.Ctors {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(" | ")
		}
		b.WriteString(c.Name)
		if len(c.Args) > 0 {
			args := make([]string, len(c.Args))
			for j, a := range c.Args {
				args[j] = printTypeExpr(a)
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
		}
	}
	b.WriteString(";")
	return b.String()
}

func printForeignDecl(f *ForeignDecl) string {
	return fmt.Sprintf("foreign %s : %s;", f.Name, printTypeExpr(f.Annotation))
}

func printValueDecl(v *ValueDecl) string {
	if v.Annotation != nil {
		return fmt.Sprintf("%s : %s = %s;", v.Name, printTypeExpr(v.Annotation), printExpr(v.RHS))
	}
	return fmt.Sprintf("%s = %s;", v.Name, printExpr(v.RHS))
}

func printTypeExpr(t TypeExpr) string {
	switch v := t.(type) {
	case *TEVar:
		return v.Name
	case *TECon:
		if len(v.Args) == 0 {
			return v.Name.String()
		}
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = printTypeExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name.String(), strings.Join(args, ", "))
	case *TEFunc:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = printTypeExpr(p)
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), printTypeExpr(v.Return))
	default:
		return "<?type?>"
	}
}

func printExpr(e Expr) string {
	switch v := e.(type) {
	case *Literal:
		switch v.Kind {
		case LitString:
			return fmt.Sprintf("%q", v.Value)
		default:
			return v.Value
		}
	case *Var:
		return v.Name.String()
	case *ConstructorRef:
		return v.Name.String()
	case *ArrayLit:
		elems := make([]string, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = printExpr(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *FuncLit:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			if p.Annotation != nil {
				params[i] = fmt.Sprintf("%s: %s", p.Name, printTypeExpr(p.Annotation))
			} else {
				params[i] = p.Name
			}
		}
		ret := ""
		if v.ReturnType != nil {
			ret = " : " + printTypeExpr(v.ReturnType)
		}
		return fmt.Sprintf("(%s)%s -> %s", strings.Join(params, ", "), ret, printExpr(v.Body))
	case *App:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", printExpr(v.Callee), strings.Join(args, ", "))
	case *If:
		return fmt.Sprintf("if %s then %s else %s", printExpr(v.Cond), printExpr(v.Then), printExpr(v.Else))
	default:
		return "<?expr?>"
	}
}
