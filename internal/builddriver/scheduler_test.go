package builddriver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRespectsDependencyOrder(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ast("App"), ast("Lib"))
	g.AddEdge(ast("Lib"), ast("Core"))

	var mu sync.Mutex
	var order []TargetID

	err := Run(g, 4, func(id TargetID) error {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := map[TargetID]int{}
	for i, id := range order {
		pos[id] = i
	}
	require.Less(t, pos[ast("Core")], pos[ast("Lib")])
	require.Less(t, pos[ast("Lib")], pos[ast("App")])
}

func TestRunStopsDispatchingAfterError(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ast("App"), ast("Lib"))
	g.AddTarget(ast("Unrelated"))

	boom := errors.New("boom")
	var ranLib, ranApp bool
	var mu sync.Mutex

	err := Run(g, 2, func(id TargetID) error {
		mu.Lock()
		defer mu.Unlock()
		switch id {
		case ast("Lib"):
			ranLib = true
			return boom
		case ast("App"):
			ranApp = true
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	require.True(t, ranLib)
	// App depends on Lib, which failed, so App must never have run.
	require.False(t, ranApp)
}

func TestRunHandlesEmptyGraph(t *testing.T) {
	g := NewGraph()
	err := Run(g, 2, func(TargetID) error {
		return errors.New("should never be called")
	})
	require.NoError(t, err)
}

func TestRunConcurrentIndependentTargets(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"A", "B", "C", "D"} {
		g.AddTarget(ast(name))
	}

	var count int32
	var mu sync.Mutex
	seen := map[TargetID]bool{}

	err := Run(g, 4, func(id TargetID) error {
		mu.Lock()
		count++
		seen[id] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(4), count)
	require.Len(t, seen, 4)
}
