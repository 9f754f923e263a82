package worker

import (
	"context"
	"sync"
)

// Map runs fn over items with at most workers concurrent goroutines and
// returns the results in input order. Items share no mutable state; each
// result slot has a single writer.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) R) []R {
	if workers <= 0 {
		workers = 1
	}

	results := make([]R, len(items))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				// fn observes the cancelled context and returns its
				// own failure result.
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}
			results[idx] = fn(ctx, it)
		}(i, item)
	}

	wg.Wait()
	return results
}
