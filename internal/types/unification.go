package types

import "fmt"

// UnifyError is returned by Unify on a type or arity mismatch, or a
// failed occurs check. The checker wraps it into a structured
// errors.Report with the expression's span (spec.md §7).
type UnifyError struct {
	Left, Right Type
	Reason      string // "mismatch", "arity", "occurs"
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s (%s)", e.Left.String(), e.Right.String(), e.Reason)
}

// Unify computes the most general substitution that makes a and b equal
// modulo the substitution already in s, extending s. Function types
// unify only with equal arities; constructor applications only with the
// same name and arity (spec.md §4.3). Occurs-check is mandatory.
func Unify(s Subst, a, b Type) (Subst, error) {
	a = Apply(s, a)
	b = Apply(s, b)

	if av, ok := a.(*TVar); ok {
		return bindVar(s, av, b)
	}
	if bv, ok := b.(*TVar); ok {
		return bindVar(s, bv, a)
	}

	switch at := a.(type) {
	case *TCon:
		bt, ok := b.(*TCon)
		if !ok || at.Name != bt.Name {
			return nil, &UnifyError{Left: a, Right: b, Reason: "mismatch"}
		}
		if len(at.Args) != len(bt.Args) {
			return nil, &UnifyError{Left: a, Right: b, Reason: "arity"}
		}
		cur := s
		for i := range at.Args {
			var err error
			cur, err = Unify(cur, at.Args[i], bt.Args[i])
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	case *TFunc:
		bt, ok := b.(*TFunc)
		if !ok {
			return nil, &UnifyError{Left: a, Right: b, Reason: "mismatch"}
		}
		if len(at.Params) != len(bt.Params) {
			return nil, &UnifyError{Left: a, Right: b, Reason: "arity"}
		}
		cur := s
		for i := range at.Params {
			var err error
			cur, err = Unify(cur, at.Params[i], bt.Params[i])
			if err != nil {
				return nil, err
			}
		}
		return Unify(cur, at.Return, bt.Return)
	default:
		return nil, &UnifyError{Left: a, Right: b, Reason: "mismatch"}
	}
}

func bindVar(s Subst, v *TVar, t Type) (Subst, error) {
	if tv, ok := t.(*TVar); ok && tv.Name == v.Name {
		return s, nil
	}
	if occurs(v.Name, t) {
		return nil, &UnifyError{Left: v, Right: t, Reason: "occurs"}
	}
	out := make(Subst, len(s)+1)
	for k, val := range s {
		out[k] = val
	}
	out[v.Name] = t
	return out, nil
}

func occurs(name string, t Type) bool {
	switch v := t.(type) {
	case *TVar:
		return v.Name == name
	case *TCon:
		for _, a := range v.Args {
			if occurs(name, a) {
				return true
			}
		}
		return false
	case *TFunc:
		for _, p := range v.Params {
			if occurs(name, p) {
				return true
			}
		}
		return occurs(name, v.Return)
	default:
		return false
	}
}
