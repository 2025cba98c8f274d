package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/veranemoloko/imgpoll/internal/config"
	"github.com/veranemoloko/imgpoll/internal/decode"
	"github.com/veranemoloko/imgpoll/internal/fetch"
	"github.com/veranemoloko/imgpoll/internal/metrics"
	"github.com/veranemoloko/imgpoll/internal/task"
	"github.com/veranemoloko/imgpoll/internal/view"
)

// FetchService ties the coordinator, the fetch worker and the view state
// together behind the single-consumer discipline the coordinator expects:
// every entry point serializes on one mutex, so Poll always runs alone no
// matter how many HTTP handlers or UI ticks call in.
type FetchService struct {
	coord  *fetch.Coordinator
	worker *fetch.Worker
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.Mutex
	state    view.State
	artifact *decode.Artifact
}

// NewFetchService creates a service around an idle coordinator.
func NewFetchService(worker *fetch.Worker, cfg *config.Config, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		coord: task.New[fetch.Event, *decode.Artifact](task.Options{
			QueueCapacity: cfg.QueueCapacity,
			Logger:        logger,
		}),
		worker: worker,
		cfg:    cfg,
		logger: logger,
		state:  view.State{Status: view.StatusIdle},
	}
}

// Spawn starts fetching url on a worker goroutine. While a previous fetch is
// still live it rejects with task.ErrBusy; callers cancel and drain first.
func (s *FetchService) Spawn(url string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.coord.Spawn(func(h *fetch.Handle) {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
		defer cancel()
		s.worker.Fetch(ctx, url, h)
	})
	if err != nil {
		return uuid.Nil, err
	}

	id := s.coord.Attempt()
	metrics.TasksSpawned.Inc()
	s.state.Begin(id, url)
	s.logger.Info("fetch spawned", "attempt_id", id, "url", url)
	return id, nil
}

// Cancel requests cooperative cancellation of the live fetch. It returns
// immediately; the canceled result surfaces through a later Poll. Idle
// cancel is a no-op.
func (s *FetchService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord.Cancel()
}

// Poll drains pending progress and, when the fetch has finished, consumes
// the terminal result, folding everything into the view state. It never
// blocks and returns the updated state.
func (s *FetchService) Poll() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.coord.Poll(func(event fetch.Event) {
		s.state.ApplyEvent(event)
	})
	if res != nil {
		s.state.ApplyResult(res)
		if res.Err == nil {
			s.artifact = res.Value
		}
	}
	return s.state
}

// Busy reports whether a fetch is currently live.
func (s *FetchService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord.IsActive()
}

// Artifact returns the most recently decoded artifact, or nil. Ownership
// transferred to the consumer on success; the service keeps it for display.
func (s *FetchService) Artifact() *decode.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}
