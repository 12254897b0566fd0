// Package parallel splits elementwise volume passes across CPU cores.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny volumes from being split into more goroutines than work
const minChunk = 4096

// Executor runs work over a flat index range on a bounded number of workers
type Executor struct {
	numCores int
}

// NewExecutor creates an executor using numCores workers. Values below one
// fall back to all available cores.
func NewExecutor(numCores int) *Executor {
	if numCores < 1 {
		numCores = runtime.NumCPU()
	}
	return &Executor{numCores: numCores}
}

// NumCores returns the worker limit
func (e *Executor) NumCores() int {
	return e.numCores
}

// Serial is an executor that runs everything on the calling goroutine
var Serial = &Executor{numCores: 1}

// Range calls fn on contiguous sub-ranges [start, end) covering [0, n).
// Each index is visited by exactly one call. The first error returned by any
// call is returned once every worker has finished.
func (e *Executor) Range(n int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}

	workers := e.numCores
	if limit := (n + minChunk - 1) / minChunk; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		return fn(0, n)
	}

	// Divide the work among available cores
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, en := start, end
		g.Go(func() error {
			return fn(s, en)
		})
	}
	return g.Wait()
}

// For is Range for passes that cannot fail
func (e *Executor) For(n int, fn func(start, end int)) {
	_ = e.Range(n, func(start, end int) error {
		fn(start, end)
		return nil
	})
}
