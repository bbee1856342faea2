package types

import "fmt"

// Fresh allocates monotonically increasing type-variable names within a
// single module check (spec.md §4.3: "allocated from a monotonically
// increasing counter per module"). It is not safe for concurrent use —
// each module is checked on its own goroutine by the build driver, never
// shared.
type Fresh struct {
	n int
}

// NewVar returns a new, never-before-seen type variable.
func (f *Fresh) NewVar() *TVar {
	f.n++
	return &TVar{Name: fmt.Sprintf("t%d", f.n)}
}

// Instantiate freshens every quantified variable of a scheme, producing
// a monotype suitable for unification at a use site.
func (f *Fresh) Instantiate(sch *Scheme) Type {
	if len(sch.Vars) == 0 {
		return sch.Body
	}
	sub := make(Subst, len(sch.Vars))
	for _, v := range sch.Vars {
		sub[v] = f.NewVar()
	}
	return Apply(sub, sch.Body)
}

// Generalize quantifies over every variable free in t but not free in
// any type in env (spec.md §4.3: generalization happens once, at the
// module-level binding, over variables free in the inferred type but
// not free in any imported or previously generalized binding).
func Generalize(env []Type, t Type) *Scheme {
	envFree := map[string]bool{}
	for _, e := range env {
		for v := range FreeVars(e) {
			envFree[v] = true
		}
	}
	var vars []string
	for v := range FreeVars(t) {
		if !envFree[v] {
			vars = append(vars, v)
		}
	}
	return &Scheme{Vars: sortedCopy(vars), Body: t}
}

func sortedCopy(vs []string) []string {
	out := make([]string, len(vs))
	copy(out, vs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
