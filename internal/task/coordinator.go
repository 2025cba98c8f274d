// Package task implements a cancelable background-task primitive for
// poll-driven consumers: a worker goroutine streams ordered progress events
// and exactly one terminal result through a shared handle, while the consumer
// drains both without ever blocking and may request cooperative cancellation.
package task

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State describes where the coordinator is in a task's lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateSpawning State = "spawning"
	StateActive   State = "active"
)

// Options configures a Coordinator.
type Options struct {
	// QueueCapacity bounds the progress queue of each attempt.
	// Non-positive values use DefaultQueueCapacity.
	QueueCapacity int

	// Strict turns protocol violations (double Resolve, progress before
	// Activate) into panics instead of logged warnings.
	Strict bool

	Logger *slog.Logger
}

// Coordinator owns at most one live task handle at a time and drives the
// Idle -> Spawning -> Active -> Finalizing -> Idle lifecycle around it.
// Spawn hands a fresh handle to a worker goroutine; the consumer calls Poll
// every tick to drain progress and, eventually, consume the terminal result,
// which returns the coordinator to Idle. None of the consumer-side calls
// ever block.
type Coordinator[P, T any] struct {
	opts Options

	mu     sync.Mutex
	handle *Handle[P, T]
}

// New creates an idle coordinator.
func New[P, T any](opts Options) *Coordinator[P, T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator[P, T]{opts: opts}
}

// Spawn creates a fresh handle and runs the producer with it on its own
// goroutine. While a previous attempt is live, Spawn rejects with ErrBusy:
// the caller must Cancel and drain the old attempt first. The producer must
// Activate the handle, may Send any number of progress events, and must
// Resolve exactly once.
func (c *Coordinator[P, T]) Spawn(run func(*Handle[P, T])) error {
	c.mu.Lock()
	if c.handle != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	h := newHandle[P, T](c.opts.QueueCapacity, c.opts.Strict, c.opts.Logger)
	c.handle = h
	c.mu.Unlock()

	c.opts.Logger.Debug("task spawned", "attempt_id", h.ID())
	go run(h)
	return nil
}

// IsActive reports whether a spawned worker has activated and not yet been
// finalized. It turns true strictly before the first progress event is
// observable through Poll.
func (c *Coordinator[P, T]) IsActive() bool {
	return c.State() != StateIdle
}

// State returns the coordinator's current lifecycle state. The transient
// finalizing step happens inside the Poll that consumes the result, so it is
// never observable from outside.
func (c *Coordinator[P, T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.handle == nil:
		return StateIdle
	case !c.handle.Activated():
		return StateSpawning
	default:
		return StateActive
	}
}

// Attempt returns the ID of the live attempt, or uuid.Nil when idle.
func (c *Coordinator[P, T]) Attempt() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return uuid.Nil
	}
	return c.handle.ID()
}

// Cancel raises the live attempt's cancel flag. It never waits for the
// worker to stop: the worker observes the flag at its next checkpoint and
// resolves with ErrCanceled. Calling Cancel while idle is a no-op, and a
// raised flag has no effect once the terminal result has been consumed.
func (c *Coordinator[P, T]) Cancel() {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel.Request()
	c.opts.Logger.Debug("task cancel requested", "attempt_id", h.ID())
}

// Poll drains every queued progress event into visit, in emission order,
// then checks for the terminal result. When the result is available it is
// returned exactly once, any progress that was queued ahead of it is drained
// first, and the coordinator resets to Idle, ready for the next Spawn. Poll
// returns nil while the attempt is still running and always returns
// immediately.
func (c *Coordinator[P, T]) Poll(visit func(P)) *Result[T] {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		return nil
	}

	h.queue.TryDrain(visit)

	select {
	case res := <-h.result:
		// Everything the worker sent before resolving is already
		// enqueued, so one more drain delivers the full tail before
		// the terminal result becomes visible.
		h.queue.TryDrain(visit)

		c.mu.Lock()
		c.handle = nil
		c.mu.Unlock()

		c.opts.Logger.Debug("task finalized",
			"attempt_id", h.ID(),
			"canceled", res.Canceled(),
			"failed", res.Err != nil && !res.Canceled(),
		)
		return &res
	default:
		return nil
	}
}
