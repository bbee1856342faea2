package checker

import (
	"fmt"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/types"
)

// builtinArity reports the declared arity of a built-in type
// constructor that is always in scope, independent of imports.
func builtinArity(name string) (int, bool) {
	switch name {
	case "Unit", "Bool", "Int", "Float", "String":
		return 0, true
	case "Array":
		return 1, true
	default:
		return 0, false
	}
}

// resolveTypeExprKinded converts a surface TypeExpr into a types.Type,
// checking that every constructor reference supplies exactly its
// declared arity (spec.md §4.3's kind checking). Every lower-case
// identifier reaching here as a TEVar is implicitly universally
// quantified by its first occurrence; reusing the same literal name
// elsewhere in the same declaration refers to the same variable, which
// falls out of TVar identity being name-based.
func (c *Checker) resolveTypeExprKinded(t ast.TypeExpr) types.Type {
	switch v := t.(type) {
	case *ast.TEVar:
		return &types.TVar{Name: v.Name}
	case *ast.TECon:
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = c.resolveTypeExprKinded(a)
		}
		arity, ok := c.lookupType(v.Name.Qualifier, v.Name.Name)
		if !ok {
			arity.arity, ok = builtinArity(v.Name.Name)
		}
		if !ok {
			c.bag.Add(errors.New(errors.PhaseCheck, errors.ModUnresolvedName,
				fmt.Sprintf("unresolved type %q", v.Name.String()), spanOf(v.Pos)).
				WithFix(c.suggestType(v.Name.String()), 0.5))
			return &types.TVar{Name: "$error"}
		}
		if arity.arity != len(args) {
			c.bag.Add(errors.New(errors.PhaseCheck, errors.TypKindMismatch,
				fmt.Sprintf("%q expects %d argument(s), got %d", v.Name.String(), arity.arity, len(args)), spanOf(v.Pos)))
		}
		return &types.TCon{Name: v.Name.Name, Args: args}
	case *ast.TEFunc:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = c.resolveTypeExprKinded(p)
		}
		return &types.TFunc{Params: params, Return: c.resolveTypeExprKinded(v.Return)}
	default:
		panic(fmt.Sprintf("checker: unhandled TypeExpr %T", t))
	}
}
