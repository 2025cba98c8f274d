package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/veranemoloko/imgpoll/internal/decode"
	"github.com/veranemoloko/imgpoll/internal/metrics"
	"github.com/veranemoloko/imgpoll/internal/task"
)

// Handle is the coordinator handle a fetch worker runs against.
type Handle = task.Handle[Event, *decode.Artifact]

// Coordinator pairs the generic coordinator with the fetch payload types.
type Coordinator = task.Coordinator[Event, *decode.Artifact]

// DecodeFunc turns the accumulated bytes into the final artifact.
type DecodeFunc func(data []byte, label string) (*decode.Artifact, error)

// DefaultAcceptedKinds is the content-kind allow list. Matching is
// substring-based so parameterized kinds like "image/png; charset=binary"
// pass.
var DefaultAcceptedKinds = []string{"image/jpeg", "image/png"}

// Worker is the producer side of a fetch task: it opens a stream, validates
// the content kind, pumps chunks into the progress queue while honoring
// cancellation, decodes, and resolves the handle exactly once.
type Worker struct {
	opener   Opener
	decoder  DecodeFunc
	accepted []string
	logger   *slog.Logger
}

// NewWorker builds a worker. A nil decoder uses decode.Image and nil
// accepted kinds use DefaultAcceptedKinds.
func NewWorker(opener Opener, decoder DecodeFunc, accepted []string, logger *slog.Logger) *Worker {
	if decoder == nil {
		decoder = decode.Image
	}
	if accepted == nil {
		accepted = DefaultAcceptedKinds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		opener:   opener,
		decoder:  decoder,
		accepted: accepted,
		logger:   logger,
	}
}

// Fetch runs the full producer protocol for url against h. Every runtime
// failure is caught here and delivered through the terminal result; nothing
// escapes to crash the process. Cancellation checkpoints sit at connection
// open, around every chunk, and before decode, so cancel latency is bounded
// by the time to the next chunk.
func (w *Worker) Fetch(ctx context.Context, url string, h *Handle) {
	h.Activate()
	start := time.Now()

	artifact, err := w.fetch(ctx, url, h)

	switch {
	case err == nil:
		metrics.TasksCompleted.Inc()
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
		w.logger.Info("fetch completed",
			"attempt_id", h.ID(),
			"url", url,
			"bytes", artifact.SizeBytes,
			"format", artifact.Format,
		)
	case errors.Is(err, task.ErrCanceled):
		metrics.TasksCanceled.Inc()
		w.logger.Info("fetch canceled", "attempt_id", h.ID(), "url", url)
	default:
		metrics.TasksFailed.Inc()
		w.logger.Error("fetch failed", "attempt_id", h.ID(), "url", url, "error", err)
	}

	h.Resolve(artifact, err)
}

func (w *Worker) fetch(ctx context.Context, url string, h *Handle) (*decode.Artifact, error) {
	if h.ShouldCancel() {
		return nil, task.ErrCanceled
	}

	stream, err := w.opener.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	kind, err := stream.ContentKind()
	if err != nil {
		return nil, err
	}
	if !w.accepts(kind) {
		return nil, &ContentKindError{Kind: kind, Accepted: w.accepted}
	}

	var buf []byte
	for {
		if h.ShouldCancel() {
			return nil, task.ErrCanceled
		}

		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			continue
		}

		// A cancel that lands while the chunk was in flight drops the
		// chunk: it is neither buffered nor reported.
		if h.ShouldCancel() {
			return nil, task.ErrCanceled
		}

		buf = append(buf, chunk...)
		h.Send(BytesReceived{Count: len(chunk)})
		metrics.FetchBytes.Add(float64(len(chunk)))
	}

	if h.ShouldCancel() {
		return nil, task.ErrCanceled
	}

	h.Send(DecodeStarted{})
	artifact, err := w.decoder(buf, stream.Source())
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (w *Worker) accepts(kind string) bool {
	for _, accepted := range w.accepted {
		if strings.Contains(kind, accepted) {
			return true
		}
	}
	return false
}
