// Package fanout implements the file-granularity fork-join parallelism
// spec.md §5 requires for the scan and analyze phases ("parallel threads at
// the file granularity... no shared mutable state during analysis"),
// grounded on funvibe-funxy and theRebelliousNerd-codenerd's shared use of
// golang.org/x/sync/errgroup for bounded worker fan-out.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes work(i) for every i in [0, n) on up to maxConcurrency
// goroutines, returning the first error encountered (errgroup cancels the
// shared context on first error, so in-flight tasks can observe ctx.Err()
// and stop early). maxConcurrency <= 0 means unbounded.
func Run(ctx context.Context, n, maxConcurrency int, work func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return work(gctx, i)
		})
	}
	return g.Wait()
}

// Reduce runs work(i) for every i in [0, n), collecting each task's result
// into a per-index slot, then returns the slots in index order. If any task
// fails it returns nil and the first error instead. Used by the analyze phase, whose "result is a reduction
// (issue concatenation) over per-file outputs" (spec.md §5).
func Reduce[T any](ctx context.Context, n, maxConcurrency int, work func(ctx context.Context, i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	err := Run(ctx, n, maxConcurrency, func(ctx context.Context, i int) error {
		v, err := work(ctx, i)
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
