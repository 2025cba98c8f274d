package task

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrCanceled marks a terminal result produced by a worker honoring a
	// cancellation request. It is a controlled abort, not a failure the
	// consumer should render as an error.
	ErrCanceled = errors.New("task: canceled")

	// ErrBusy is returned by Spawn while a previous task is still live.
	ErrBusy = errors.New("task: another task is still active")
)

// Result is the single terminal outcome of a task attempt.
type Result[T any] struct {
	Value T
	Err   error
}

// Canceled reports whether the attempt ended because the consumer asked it to.
func (r *Result[T]) Canceled() bool {
	return errors.Is(r.Err, ErrCanceled)
}

// CancelFlag is the consumer-raised, worker-observed cancellation signal.
// Once requested it never resets for the task attempt it belongs to.
type CancelFlag struct {
	requested atomic.Bool
}

// Request raises the flag. Idempotent.
func (f *CancelFlag) Request() {
	f.requested.Store(true)
}

// Requested reports whether cancellation has been asked for. Workers call
// this at checkpoints; cancellation is cooperative, never preemptive.
func (f *CancelFlag) Requested() bool {
	return f.requested.Load()
}

// Handle couples the progress queue, the cancel flag and the one-shot result
// cell for a single task attempt. The coordinator creates one per Spawn and
// hands it to the worker; the worker writes progress and the terminal result
// and reads the flag, the consumer does the inverse.
type Handle[P, T any] struct {
	id       uuid.UUID
	queue    *Queue[P]
	cancel   CancelFlag
	active   atomic.Bool
	resolved atomic.Bool
	result   chan Result[T]
	strict   bool
	logger   *slog.Logger
}

func newHandle[P, T any](capacity int, strict bool, logger *slog.Logger) *Handle[P, T] {
	return &Handle[P, T]{
		id:     uuid.New(),
		queue:  NewQueue[P](capacity),
		result: make(chan Result[T], 1),
		strict: strict,
		logger: logger,
	}
}

// ID identifies this attempt in logs and status snapshots.
func (h *Handle[P, T]) ID() uuid.UUID {
	return h.id
}

// Activate marks the task live. Workers must call it before the first Send,
// so the consumer observes activity strictly before any progress event.
func (h *Handle[P, T]) Activate() {
	h.active.Store(true)
}

// Activated reports whether the worker has called Activate.
func (h *Handle[P, T]) Activated() bool {
	return h.active.Load()
}

// Send emits one progress event. Sending before Activate is a protocol
// violation; the handle activates itself so the activity-before-progress
// invariant still holds for the consumer.
func (h *Handle[P, T]) Send(event P) {
	if !h.active.Load() {
		h.violation("progress sent before Activate")
		h.active.Store(true)
	}
	h.queue.Send(event)
}

// ShouldCancel is the worker-side checkpoint read of the cancel flag.
func (h *Handle[P, T]) ShouldCancel() bool {
	return h.cancel.Requested()
}

// Resolve delivers the terminal result. It must be called exactly once per
// attempt; a second call is a programming error and is dropped (or panics
// when the coordinator was built strict).
func (h *Handle[P, T]) Resolve(value T, err error) {
	if !h.resolved.CompareAndSwap(false, true) {
		h.violation("Resolve called twice")
		return
	}
	h.result <- Result[T]{Value: value, Err: err}
}

func (h *Handle[P, T]) violation(msg string) {
	if h.strict {
		panic("task: protocol violation: " + msg)
	}
	h.logger.Warn("task protocol violation", "attempt_id", h.id, "detail", msg)
}
