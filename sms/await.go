package sms

import "context"

// Await runs op and returns its result, or ctx.Err() if ctx ends first.
//
// Use it to put a deadline around GetMessages or SendMessage. The operation
// is not interrupted when the deadline wins: it keeps running in the
// background and its result is discarded.
func Await[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := op(context.WithoutCancel(ctx))
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
