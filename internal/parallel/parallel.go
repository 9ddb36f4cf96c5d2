// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// For calls fn on consecutive half-open chunks [lo, hi) covering [0, n).
// Every chunk but the last holds at least grain indices. When n fits in
// one grain fn runs on the calling goroutine; otherwise at most GOMAXPROCS
// chunks run at once and For returns when all of them have finished.
//
// fn must only touch the part of shared state that belongs to its chunk.
func For(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if grain < 1 {
		grain = 1
	}
	workers := runtime.GOMAXPROCS(0)
	if n <= grain || workers == 1 {
		fn(0, n)
		return
	}
	size := grain
	if maxChunks := workers * 4; (n+size-1)/size > maxChunks {
		size = (n + maxChunks - 1) / maxChunks
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // chunks never fail
}
