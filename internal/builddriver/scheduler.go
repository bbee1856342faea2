package builddriver

import (
	"runtime"
	"sync"
)

// Execute runs one target to completion and reports its outcome. A
// target, once dispatched, always runs to completion — see Run.
type Execute func(TargetID) error

// schedState is the mutex-guarded, O(1)-transition state shared across
// worker goroutines: in-degree counters and the first fatal error seen
// (spec.md §5: "the graph and target-state table are protected by a
// mutex held only for O(1) state transitions; outputs are owned
// exclusively by the target that produces them").
type schedState struct {
	mu        sync.Mutex
	indegree  map[TargetID]int
	queued    map[TargetID]bool
	remaining int
	stopping  bool
	firstErr  error
}

// Run executes every target in g via execute, respecting dependency
// order: a target is dispatched only once every predecessor has
// completed successfully (spec.md §4.5, §5). Independent targets run
// concurrently on a fixed worker pool — "a work-stealing pool of OS
// threads" per spec.md §5, approximated here with a bounded pool of
// goroutines pulling from a shared ready channel, since Go's scheduler
// already work-steals goroutines across OS threads beneath that.
//
// Once any target's Execute returns an error, Run stops dispatching new
// targets but lets already-dispatched ones finish (no cancellation of
// in-flight work), then returns the first error encountered.
func Run(g *Graph, numWorkers int, execute Execute) error {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	targets := g.Targets()

	st := &schedState{
		indegree:  map[TargetID]int{},
		queued:    map[TargetID]bool{},
		remaining: len(targets),
	}
	// ready is sized to hold every target at once so a send from within
	// the completion handler below never blocks.
	ready := make(chan TargetID, len(targets))

	for _, t := range targets {
		st.indegree[t] = len(g.Deps(t))
	}
	for _, t := range targets {
		if st.indegree[t] == 0 {
			st.queued[t] = true
			ready <- t
		}
	}
	if len(targets) == 0 {
		close(ready)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ready {
				st.mu.Lock()
				skip := st.stopping
				st.mu.Unlock()

				var err error
				if !skip {
					err = execute(t)
				}

				st.mu.Lock()
				justStopped := false
				if err != nil && st.firstErr == nil {
					st.firstErr = err
					st.stopping = true
					justStopped = true
				}
				st.remaining--
				closeNow := st.remaining == 0
				var unblocked []TargetID
				if err == nil && !skip && !st.stopping {
					for _, dep := range g.Dependents(t) {
						st.indegree[dep]--
						if st.indegree[dep] == 0 && !st.queued[dep] {
							st.queued[dep] = true
							unblocked = append(unblocked, dep)
						}
					}
				}
				if justStopped {
					// A fatal error requests an orderly stop at the next
					// completion (spec.md §5): flush every target that
					// was never going to be dispatched otherwise, so it
					// is accounted for (as skipped) instead of leaving
					// remaining stuck above zero.
					for _, other := range targets {
						if !st.queued[other] {
							st.queued[other] = true
							unblocked = append(unblocked, other)
						}
					}
				}
				st.mu.Unlock()

				for _, dep := range unblocked {
					ready <- dep
				}
				if closeNow {
					close(ready)
				}
			}
		}()
	}
	wg.Wait()

	return st.firstErr
}
