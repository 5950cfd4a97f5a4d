// Package optimistic applies a speculative state change before the operation
// that makes it real, and restores the previous state when that operation fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrReconcile marks a failure to store the confirmed state after a successful operation.
var ErrReconcile = errors.New("reconcile state")

// State is a value that can be read and replaced.
type State[T any] interface {
	Load(ctx context.Context) (T, error)
	Store(ctx context.Context, v T) error
}

// Do snapshots st, stores speculate(snapshot), then runs op. When op fails the
// snapshot is restored and op's error returned. When op succeeds its result
// replaces the speculative state. speculate must not mutate its argument.
func Do[T any](ctx context.Context, st State[T], speculate func(T) T, op func(context.Context) (T, error)) (T, error) {
	var zero T

	snapshot, err := st.Load(ctx)
	if err != nil {
		return zero, fmt.Errorf("snapshot state: %w", err)
	}

	if err := st.Store(ctx, speculate(snapshot)); err != nil {
		return zero, fmt.Errorf("apply speculative state: %w", err)
	}

	result, err := op(ctx)
	if err != nil {
		// rollback must run even when ctx is what failed op
		if rbErr := st.Store(context.WithoutCancel(ctx), snapshot); rbErr != nil {
			return zero, errors.Join(err, fmt.Errorf("rollback state: %w", rbErr))
		}
		return zero, err
	}

	if err := st.Store(ctx, result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrReconcile, err)
	}

	return result, nil
}

// Value is an in-memory State.
type Value[T any] struct {
	mu sync.Mutex
	v  T
}

func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

func (s *Value[T]) Load(_ context.Context) (T, error) {
	return s.Get(), nil
}

func (s *Value[T]) Store(_ context.Context, v T) error {
	s.mu.Lock()
	s.v = v
	s.mu.Unlock()
	return nil
}

func (s *Value[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}
