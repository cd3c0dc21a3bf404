// Package scheduler runs deferred and periodic work: duel and hunt resolution,
// rumble rounds and counter pruning. Scheduled work is not cancellable.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Scheduler runs tasks later or repeatedly.
type Scheduler interface {
	// After runs task once, delay from now.
	After(delay time.Duration, name string, task func()) error
	// Every runs task at a fixed interval until shutdown.
	Every(interval time.Duration, name string, task func()) error
	Shutdown() error
}

// Gocron is the production scheduler.
type Gocron struct {
	s gocron.Scheduler
}

// NewGocron creates and starts a gocron scheduler.
func NewGocron() (*Gocron, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.Start()
	return &Gocron{s: s}, nil
}

// After schedules a one-time job.
func (g *Gocron) After(delay time.Duration, name string, task func()) error {
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(delay))
	}
	_, err := g.s.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(guard(name, task)),
		gocron.WithName(jobName(name)),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Every schedules a duration job that never overlaps itself.
func (g *Gocron) Every(interval time.Duration, name string, task func()) error {
	_, err := g.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(guard(name, task)),
		gocron.WithName(jobName(name)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Shutdown stops the scheduler and waits for running jobs.
func (g *Gocron) Shutdown() error {
	return g.s.Shutdown()
}

func jobName(name string) string {
	return name + "-" + uuid.NewString()
}

// guard keeps a panicking task from taking the scheduler down.
func guard(name string, task func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("job", name).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("Scheduled task panicked")
			}
		}()
		task()
	}
}

// Future is the pending result of a deferred resolution.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is available or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) complete(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Defer runs fn after delay on s and returns its future. A scheduling failure
// completes the future with that error.
func Defer[T any](s Scheduler, delay time.Duration, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	err := s.After(delay, name, func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", name, r)
			}
			f.complete(v, err)
		}()
		v, err = fn(context.Background())
	})
	if err != nil {
		var zero T
		f.complete(zero, err)
	}
	return f
}
