package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeCanonicalizeRenamesPositionally(t *testing.T) {
	sch := &Scheme{Vars: []string{"t7"}, Body: &TFunc{
		Params: []Type{&TVar{Name: "t7"}},
		Return: &TVar{Name: "t7"},
	}}
	canon := sch.Canonicalize()
	require.Equal(t, []string{"a"}, canon.Vars)
	assert.Equal(t, "(a) -> a", canon.Body.String())
}

func TestSchemeCanonicalizeIsOrderStable(t *testing.T) {
	// Two alpha-equivalent schemes spelled with different fresh-variable
	// names must canonicalize to the identical scheme, regardless of how
	// many fresh variables the checker's counter had already allocated
	// before this binding (spec.md §8 export stability).
	s1 := &Scheme{Vars: []string{"t3", "t9"}, Body: &TFunc{
		Params: []Type{&TVar{Name: "t3"}, &TVar{Name: "t9"}},
		Return: &TVar{Name: "t3"},
	}}
	s2 := &Scheme{Vars: []string{"t100", "t101"}, Body: &TFunc{
		Params: []Type{&TVar{Name: "t100"}, &TVar{Name: "t101"}},
		Return: &TVar{Name: "t100"},
	}}
	assert.Equal(t, s1.Canonicalize().String(), s2.Canonicalize().String())
}

func TestSchemeCanonicalizeMonotypeIsUnchanged(t *testing.T) {
	sch := Mono(TInt)
	canon := sch.Canonicalize()
	assert.Empty(t, canon.Vars)
	assert.True(t, canon.Body.Equals(TInt))
}

func TestCanonicalizeAllSharesVariablesAcrossArgs(t *testing.T) {
	// A constructor's sibling argument types (e.g. a hypothetical
	// Pair(a, b) = Pair(a, b)) share one implicit quantification; the
	// same source letter reused across args must canonicalize to the
	// same canonical name in both.
	args := []Type{&TVar{Name: "x"}, &TCon{Name: "Array", Args: []Type{&TVar{Name: "x"}}}, &TVar{Name: "y"}}
	out := CanonicalizeAll(args)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].String())
	assert.Equal(t, "Array(a)", out[1].String())
	assert.Equal(t, "b", out[2].String())
}
