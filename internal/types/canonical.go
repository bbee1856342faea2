package types

// canonicalLetter returns the i-th name in the sequence a, b, c, ..., z,
// aa, ab, ..., the same base-26 letter scheme a human reader expects
// from a textbook Hindley–Milner scheme's quantifiers.
func canonicalLetter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return canonicalLetter(i/26-1) + string(rune('a'+i%26))
}

// Canonicalize returns a copy of s with every quantified variable (and
// its occurrences in Body) renamed to the positional sequence a, b,
// c, ... in order of first occurrence when walking Body left to right.
// Two schemes whose only difference is the literal spelling of their
// type variables — e.g. one module's fresh-variable counter landing on
// "t3" where an earlier build landed on "t5" because an unrelated
// binding above it was edited — canonicalize to the identical scheme.
// This is what makes an exported scheme's serialized form depend only
// on its shape, not on how many fresh variables happened to be
// allocated before it (spec.md §8 "Export stability").
func (s *Scheme) Canonicalize() *Scheme {
	rename := map[string]string{}
	var order []string
	var walk func(Type)
	walk = func(t Type) {
		switch v := t.(type) {
		case *TVar:
			if _, ok := rename[v.Name]; !ok {
				rename[v.Name] = canonicalLetter(len(order))
				order = append(order, v.Name)
			}
		case *TCon:
			for _, a := range v.Args {
				walk(a)
			}
		case *TFunc:
			for _, p := range v.Params {
				walk(p)
			}
			walk(v.Return)
		}
	}
	walk(s.Body)

	sub := make(Subst, len(rename))
	for old, canon := range rename {
		sub[old] = &TVar{Name: canon}
	}
	vars := make([]string, len(order))
	for i := range order {
		vars[i] = canonicalLetter(i)
	}
	return &Scheme{Vars: vars, Body: Apply(sub, s.Body)}
}

// CanonicalizeAll renames the free variables across every type in ts to
// a single shared positional sequence, in order of first occurrence
// scanning ts left to right — the same canonicalization Scheme.Canonicalize
// applies to one scheme's body, extended to a constructor's sibling
// argument types, which all share one implicit quantification (the
// owning type declaration's parameters).
func CanonicalizeAll(ts []Type) []Type {
	rename := map[string]string{}
	var order []string
	var walk func(Type)
	walk = func(t Type) {
		switch v := t.(type) {
		case *TVar:
			if _, ok := rename[v.Name]; !ok {
				rename[v.Name] = canonicalLetter(len(order))
				order = append(order, v.Name)
			}
		case *TCon:
			for _, a := range v.Args {
				walk(a)
			}
		case *TFunc:
			for _, p := range v.Params {
				walk(p)
			}
			walk(v.Return)
		}
	}
	for _, t := range ts {
		walk(t)
	}
	sub := make(Subst, len(rename))
	for old, canon := range rename {
		sub[old] = &TVar{Name: canon}
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Apply(sub, t)
	}
	return out
}
