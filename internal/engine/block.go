package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrPanicked wraps a panic recovered from an operation run by BlockOn.
var ErrPanicked = errors.New("operation panicked")

// BlockOn runs op on one of h's workers and blocks the calling goroutine until it finishes.
// The caller must not itself be running on a worker of the same engine.
func BlockOn[T any](h *Handle, op func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	err := h.run(func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{zero, fmt.Errorf("%w: %v", ErrPanicked, r)}
			}
		}()
		v, err := op(ctx)
		done <- result{v, err}
	})
	if err != nil {
		var zero T
		return zero, err
	}

	r := <-done
	return r.value, r.err
}

// Do is BlockOn for operations without a result value.
func Do(h *Handle, op func(ctx context.Context) error) error {
	_, err := BlockOn(h, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
