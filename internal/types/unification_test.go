package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyVarWithConcrete(t *testing.T) {
	s, err := Unify(Subst{}, &TVar{Name: "a"}, TInt)
	require.NoError(t, err)
	assert.Equal(t, TInt, Apply(s, &TVar{Name: "a"}))
}

func TestUnifyArityMismatchFails(t *testing.T) {
	f1 := &TFunc{Params: []Type{TInt}, Return: TInt}
	f2 := &TFunc{Params: []Type{TInt, TInt}, Return: TInt}
	_, err := Unify(Subst{}, f1, f2)
	require.Error(t, err)
	var uerr *UnifyError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "arity", uerr.Reason)
}

func TestUnifyConstructorMismatchFails(t *testing.T) {
	maybeInt := &TCon{Name: "Maybe", Args: []Type{TInt}}
	_, err := Unify(Subst{}, maybeInt, TString)
	require.Error(t, err)
}

func TestOccursCheckFails(t *testing.T) {
	a := &TVar{Name: "a"}
	selfRef := &TCon{Name: "List", Args: []Type{a}}
	_, err := Unify(Subst{}, a, selfRef)
	require.Error(t, err)
	var uerr *UnifyError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "occurs", uerr.Reason)
}

func TestGeneralizeAndInstantiate(t *testing.T) {
	// id :: forall a. (a) -> a
	f := &Fresh{}
	a := f.NewVar()
	idType := &TFunc{Params: []Type{a}, Return: a}
	scheme := Generalize(nil, idType)
	require.Len(t, scheme.Vars, 1)

	inst1 := f.Instantiate(scheme)
	inst2 := f.Instantiate(scheme)
	assert.False(t, inst1.(*TFunc).Params[0].Equals(inst2.(*TFunc).Params[0]), "each instantiation should get fresh variables")
}

func TestGeneralizeExcludesEnvFreeVars(t *testing.T) {
	f := &Fresh{}
	a := f.NewVar()
	envType := a // `a` appears in the environment, so it must not be generalized
	scheme := Generalize([]Type{envType}, a)
	assert.Empty(t, scheme.Vars)
}
