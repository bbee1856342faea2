package checker

import (
	"fmt"

	"github.com/dittolang/ditto/internal/ast"
	"github.com/dittolang/ditto/internal/errors"
	"github.com/dittolang/ditto/internal/types"
)

// checkValues infers and elaborates every top-level value binding in
// declaration order (spec.md §4.3: forward references between value
// bindings are not permitted). Generalization happens once per binding,
// immediately after it is checked, since the module is the only
// let-level this language has — nothing monomorphic ever survives past
// a single value's RHS, so there is no outer environment to exclude
// free variables from (contrast internal/types.Generalize's general
// two-argument form, used as-is with an empty environment here).
func (c *Checker) checkValues() {
	for _, vd := range c.mod.Values {
		if c.bag.Full() {
			return
		}
		t := c.inferExpr(vd.RHS)

		if vd.Annotation != nil {
			annotType := c.resolveTypeExprKinded(vd.Annotation)
			inferred := types.Apply(c.subst, t)
			before := types.Apply(c.subst, annotType)
			c.unify(t, annotType, vd.Pos)
			if alphaEquivalent(inferred, before) {
				c.warnings = append(c.warnings, redundantAnnotationWarning(vd))
			}
		}

		final := types.Apply(c.subst, t)
		c.local.valueSchemes[vd.Name] = types.Generalize(nil, final)
	}

	for _, vd := range c.mod.Values {
		applyFinalSubst(c.subst, vd.RHS)
	}
}

func redundantAnnotationWarning(vd *ast.ValueDecl) errors.Warning {
	return errors.Warning{
		Span:    spanOf(vd.Pos),
		Code:    errors.TypRedundantAnnotation,
		Message: fmt.Sprintf("type annotation on %q is redundant; it matches the inferred type", vd.Name),
	}
}

// alphaEquivalent reports whether a and b are structurally equal up to
// a consistent renaming of type variables.
func alphaEquivalent(a, b types.Type) bool {
	m := map[string]string{}
	return alphaEq(a, b, m)
}

func alphaEq(a, b types.Type, m map[string]string) bool {
	switch av := a.(type) {
	case *types.TVar:
		bv, ok := b.(*types.TVar)
		if !ok {
			return false
		}
		if mapped, seen := m[av.Name]; seen {
			return mapped == bv.Name
		}
		m[av.Name] = bv.Name
		return true
	case *types.TCon:
		bv, ok := b.(*types.TCon)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !alphaEq(av.Args[i], bv.Args[i], m) {
				return false
			}
		}
		return true
	case *types.TFunc:
		bv, ok := b.(*types.TFunc)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !alphaEq(av.Params[i], bv.Params[i], m) {
				return false
			}
		}
		return alphaEq(av.Return, bv.Return, m)
	default:
		return false
	}
}

// unify extends c.subst with the most general unifier of a and b,
// reporting a structured diagnostic on failure.
func (c *Checker) unify(a, b types.Type, pos ast.Pos) {
	s, err := types.Unify(c.subst, a, b)
	if err == nil {
		c.subst = s
		return
	}
	ue, ok := err.(*types.UnifyError)
	if !ok {
		c.bag.Add(errors.New(errors.PhaseCheck, errors.TypMismatch, err.Error(), spanOf(pos)))
		return
	}
	code := errors.TypMismatch
	msg := fmt.Sprintf("type mismatch: %s vs %s", ue.Left.String(), ue.Right.String())
	switch ue.Reason {
	case "occurs":
		code = errors.TypInfiniteType
		msg = fmt.Sprintf("infinite type: %s occurs in %s", ue.Left.String(), ue.Right.String())
	case "arity":
		code = errors.TypArityMismatch
		msg = fmt.Sprintf("arity mismatch: %s vs %s", ue.Left.String(), ue.Right.String())
	}
	c.bag.Add(errors.New(errors.PhaseCheck, code, msg, spanOf(pos)).
		WithData(map[string]any{"left": ue.Left.String(), "right": ue.Right.String()}))
}

func (c *Checker) reportUnresolved(name ast.QName, pos ast.Pos, suggestion string) {
	c.bag.Add(errors.New(errors.PhaseCheck, errors.ModUnresolvedName,
		fmt.Sprintf("unresolved name %q", name.String()), spanOf(pos)).
		WithFix(suggestion, 0.5))
}

func (c *Checker) markUsed(resolved ast.QName) {
	if resolved.Qualifier == "" {
		c.local.usedValues[resolved.Name] = true
	}
}

// ctorValueType computes the (possibly function) type of a constructor
// used as a bare value: a 0-ary constructor is its own type; an n-ary
// constructor is a function from its argument types to its type.
func ctorValueType(ci ctorInfo) types.Type {
	result := types.Type(&types.TCon{Name: ci.typeName})
	if len(ci.args) == 0 {
		return result
	}
	return &types.TFunc{Params: ci.args, Return: result}
}

func (c *Checker) inferExpr(e ast.Expr) types.Type {
	switch v := e.(type) {
	case *ast.Literal:
		var t types.Type
		switch v.Kind {
		case ast.LitUnit:
			t = types.TUnit
		case ast.LitBool:
			t = types.TBool
		case ast.LitInt:
			t = types.TInt
		case ast.LitFloat:
			t = types.TFloat
		case ast.LitString:
			t = types.TString
		}
		v.SetExprType(t)
		return t

	case *ast.Var:
		sch, resolved, ok := c.lookupValue(v.Name)
		if !ok {
			t := c.fresh.NewVar()
			v.SetExprType(t)
			c.reportUnresolved(v.Name, v.Pos, c.suggestValue(v.Name.String()))
			return t
		}
		v.Resolved = resolved
		c.markUsed(resolved)
		t := c.fresh.Instantiate(sch)
		v.SetExprType(t)
		return t

	case *ast.ConstructorRef:
		ci, resolved, ok := c.lookupCtor(v.Name)
		if !ok {
			t := c.fresh.NewVar()
			v.SetExprType(t)
			c.reportUnresolved(v.Name, v.Pos, c.suggestValue(v.Name.String()))
			return t
		}
		v.Resolved = resolved
		sch := types.Generalize(nil, ctorValueType(ci))
		t := c.fresh.Instantiate(sch)
		v.SetExprType(t)
		return t

	case *ast.ArrayLit:
		elemVar := c.fresh.NewVar()
		for _, el := range v.Elems {
			et := c.inferExpr(el)
			c.unify(elemVar, et, el.Position())
		}
		t := types.Arr(types.Apply(c.subst, elemVar))
		v.SetExprType(t)
		return t

	case *ast.FuncLit:
		scope := map[string]types.Type{}
		paramTypes := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			var pt types.Type
			if p.Annotation != nil {
				pt = c.resolveTypeExprKinded(p.Annotation)
			} else {
				pt = c.fresh.NewVar()
			}
			paramTypes[i] = pt
			scope[p.Name] = pt
		}
		c.pushScope(scope)
		bodyT := c.inferExpr(v.Body)
		c.popScope()

		if v.ReturnType != nil {
			rt := c.resolveTypeExprKinded(v.ReturnType)
			c.unify(bodyT, rt, v.Body.Position())
		}

		params := make([]types.Type, len(paramTypes))
		for i, pt := range paramTypes {
			params[i] = types.Apply(c.subst, pt)
		}
		t := &types.TFunc{Params: params, Return: types.Apply(c.subst, bodyT)}
		v.SetExprType(t)
		return t

	case *ast.App:
		calleeT := c.inferExpr(v.Callee)
		argTypes := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			argTypes[i] = c.inferExpr(a)
		}
		ret := c.fresh.NewVar()
		expected := &types.TFunc{Params: argTypes, Return: ret}
		c.unify(calleeT, expected, v.Pos)
		t := types.Apply(c.subst, ret)
		v.SetExprType(t)
		return t

	case *ast.If:
		condT := c.inferExpr(v.Cond)
		c.unify(condT, types.TBool, v.Cond.Position())
		thenT := c.inferExpr(v.Then)
		elseT := c.inferExpr(v.Else)
		c.unify(thenT, elseT, v.Pos)
		t := types.Apply(c.subst, thenT)
		v.SetExprType(t)
		return t

	default:
		panic(fmt.Sprintf("checker: unhandled Expr %T", e))
	}
}

// applyFinalSubst re-applies the module's final substitution to every
// expression node's annotated type, so no elaborated node is left
// carrying an unresolved unification variable (spec.md §3: "no free
// unification variables remain after generalization").
func applyFinalSubst(s types.Subst, e ast.Expr) {
	e.SetExprType(types.Apply(s, e.ExprType()))
	switch v := e.(type) {
	case *ast.ArrayLit:
		for _, el := range v.Elems {
			applyFinalSubst(s, el)
		}
	case *ast.FuncLit:
		applyFinalSubst(s, v.Body)
	case *ast.App:
		applyFinalSubst(s, v.Callee)
		for _, a := range v.Args {
			applyFinalSubst(s, a)
		}
	case *ast.If:
		applyFinalSubst(s, v.Cond)
		applyFinalSubst(s, v.Then)
		applyFinalSubst(s, v.Else)
	}
}
