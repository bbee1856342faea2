// Package types implements the Hindley–Milner type representation used
// by internal/checker: type variables, arity-bearing type-constructor
// applications, and n-ary function types (spec.md §4.3). There are no
// effect rows, type classes, or row-polymorphic records — all excluded
// by spec.md §1's non-goals.
package types

import (
	"fmt"
	"strings"
)

// Type is any monotype: a variable, a constructor application, or a
// function type.
type Type interface {
	String() string
	// Equals reports structural equality after substitution has already
	// been applied (i.e. it does not itself unify variables).
	Equals(Type) bool
}

// TVar is an unbound or generalized type variable, identified by a
// unique name allocated from a per-module counter (spec.md §4.3).
type TVar struct {
	Name string
}

func (t *TVar) String() string { return t.Name }

func (t *TVar) Equals(other Type) bool {
	o, ok := other.(*TVar)
	return ok && o.Name == t.Name
}

// TCon is a saturated application of a named, arity-bearing type
// constructor: TCon{Name: "Maybe", Args: [Int]} is "Maybe(Int)". A
// nullary constructor (Args == nil) is printed bare, e.g. "Int".
type TCon struct {
	Name string
	Args []Type
}

func (t *TCon) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(parts, ", "))
}

func (t *TCon) Equals(other Type) bool {
	o, ok := other.(*TCon)
	if !ok || o.Name != t.Name || len(o.Args) != len(t.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// Arity returns the number of type arguments.
func (t *TCon) Arity() int { return len(t.Args) }

// TFunc is an n-ary function type "(t1, ..., tn) -> ret". Arity is part
// of the type, not encoded via currying (spec.md §4.3).
type TFunc struct {
	Params []Type
	Return Type
}

func (t *TFunc) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Return.String())
}

func (t *TFunc) Equals(other Type) bool {
	o, ok := other.(*TFunc)
	if !ok || len(o.Params) != len(t.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return t.Return.Equals(o.Return)
}

// Built-in nullary constructors.
var (
	TUnit   = &TCon{Name: "Unit"}
	TBool   = &TCon{Name: "Bool"}
	TInt    = &TCon{Name: "Int"}
	TFloat  = &TCon{Name: "Float"}
	TString = &TCon{Name: "String"}
)

// Arr is the built-in array type constructor applied to elem.
func Arr(elem Type) *TCon { return &TCon{Name: "Array", Args: []Type{elem}} }

// Scheme is a type body plus its universally quantified variables
// (spec.md §3): "∀ Vars. Body".
type Scheme struct {
	Vars []string
	Body Type
}

func (s *Scheme) String() string {
	if len(s.Vars) == 0 {
		return s.Body.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(s.Vars, " "), s.Body.String())
}

// Mono wraps a monotype with no quantified variables.
func Mono(t Type) *Scheme { return &Scheme{Body: t} }
