package aggregate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is one settled outcome of a Settle call.
type Result[T any] struct {
	Value T
	Err   error
}

// PanicError carries a recovered panic out of a settled task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Settle runs fn for every index concurrently and waits for all of them.
// Failures (including panics) are recorded per index and never cancel siblings.
// Results keep input order.
func Settle[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) []Result[T] {
	out := make([]Result[T], n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					out[i] = Result[T]{Err: &PanicError{Value: r}}
				}
			}()
			v, err := fn(ctx, i)
			out[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
