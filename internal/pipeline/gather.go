// Package pipeline holds the orchestration patterns shared by the API
// handlers: concurrent fan-out over a collection joined on the last branch,
// and offset/limit windows over a materialized sequence.
package pipeline

import (
	"context"
	"sync"
)

// GatherFunc resolves one item. Returning keep=false drops the item from the
// result without failing the gather.
type GatherFunc[T, R any] func(ctx context.Context, item T) (result R, keep bool, err error)

// Gather runs fn for every item concurrently and returns once the last branch
// has finished. Results keep the input order. The first error cancels the
// context handed to the remaining branches and is returned.
func Gather[T, R any](ctx context.Context, items []T, fn GatherFunc[T, R]) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type slot struct {
		value R
		keep  bool
	}
	slots := make([]slot, len(items))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			v, keep, err := fn(ctx, item)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			slots[i] = slot{value: v, keep: keep}
		}(i, item)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	out := make([]R, 0, len(items))
	for _, s := range slots {
		if s.keep {
			out = append(out, s.value)
		}
	}
	return out, nil
}

// Flatten concatenates the per-branch slices produced by a Gather.
func Flatten[R any](groups [][]R) []R {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]R, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
