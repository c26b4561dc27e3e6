// Package worker bounds how many CPU-heavy transforms run at once so codec
// work never stalls the goroutines accepting requests.
package worker

import (
	"context"

	"github.com/imagecask/imagecask/internal/fault"
)

type Pool struct {
	sem chan struct{}
}

func NewPool(slots int) *Pool {
	if slots < 1 {
		slots = 1
	}
	return &Pool{sem: make(chan struct{}, slots)}
}

func (p *Pool) Slots() int {
	return cap(p.sem)
}

// Submit runs fn on its own goroutine once a pool slot frees up and awaits
// its result. Waiting for a slot respects ctx; once fn starts it always
// runs to completion. A panic inside fn surfaces as a processing fault
// instead of taking the process down.
func Submit[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, fault.New(fault.KindProcessing, ctx.Err())
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fault.Errorf(fault.KindProcessing, "worker panic: %v", r)}
			}
		}()

		value, err := fn()
		done <- outcome{value: value, err: err}
	}()

	out := <-done
	return out.value, out.err
}
