package repository

import (
	"context"
	"sync"
)

// Pump produces values for a Subscription until ctx is cancelled or the
// source fails. emit returns false once the subscription has been closed;
// the pump must stop producing when that happens.
type Pump[T any] func(ctx context.Context, emit func(T) bool) error

// Subscription is a live stream of values with an explicit release handle.
//
// Values arrive on Updates in the order the pump emits them. When the stream
// ends, Updates is closed first and then Err yields the failure, if any, and
// is closed as well. A stream ended by Close reports no error.
type Subscription[T any] struct {
	updates chan T
	errs    chan error
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe starts pump in its own goroutine. The stream lives until parent
// is cancelled, Close is called, or the pump returns.
func Subscribe[T any](parent context.Context, pump Pump[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription[T]{
		updates: make(chan T),
		errs:    make(chan error, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer cancel()

		err := pump(ctx, func(v T) bool {
			select {
			case <-ctx.Done():
				return false
			default:
			}
			select {
			case s.updates <- v:
				return true
			case <-ctx.Done():
				return false
			}
		})

		close(s.updates)
		if err != nil && ctx.Err() == nil {
			s.errs <- err
		}
		close(s.errs)
	}()

	return s
}

func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

func (s *Subscription[T]) Err() <-chan error {
	return s.errs
}

// Done is closed once the pump has exited.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery and waits for the pump to release its resources.
// Once Close returns no further value is delivered. Safe to call repeatedly.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}
