package workflow

import "context"

// Task is the handle to one asynchronous step of a session
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

func newTask[T any](cancel context.CancelFunc) *Task[T] {
	return &Task[T]{done: make(chan struct{}), cancel: cancel}
}

func completedTask[T any](value T, err error) *Task[T] {
	t := newTask[T](nil)
	t.finish(value, err)
	return t
}

func (t *Task[T]) finish(value T, err error) {
	t.value, t.err = value, err
	close(t.done)
}

// Done is closed once the task has a result
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. A task that lost to a
// later operation reports ErrSuperseded.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel stops the task if it is still running
func (t *Task[T]) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}
