// Package view holds the consumer-side state a render loop folds poll
// results into. The state is explicit and UI-free: callers pass events and
// the terminal result in and read the updated fields out, so nothing here
// depends on any framework's call timing.
package view

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/veranemoloko/imgpoll/internal/decode"
	"github.com/veranemoloko/imgpoll/internal/fetch"
	"github.com/veranemoloko/imgpoll/internal/task"
)

// Status is what the render loop should show for the current attempt.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusFetching Status = "fetching"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// ArtifactInfo is the displayable summary of a decoded artifact. The pixels
// stay with whoever owns the decode.Artifact.
type ArtifactInfo struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int    `json:"size_bytes"`
}

// State is the consumer's view of the current (or last finished) attempt.
type State struct {
	Status        Status        `json:"status"`
	AttemptID     uuid.UUID     `json:"attempt_id,omitempty"`
	URL           string        `json:"url,omitempty"`
	BytesReceived int           `json:"bytes_received"`
	Decoding      bool          `json:"decoding"`
	Artifact      *ArtifactInfo `json:"artifact,omitempty"`
	Error         string        `json:"error,omitempty"`
	Retryable     bool          `json:"retryable"`
}

// Begin resets the transient fields for a freshly spawned attempt. The last
// artifact stays visible until the new attempt replaces or fails it, which
// is how the demos behave.
func (s *State) Begin(id uuid.UUID, url string) {
	s.Status = StatusFetching
	s.AttemptID = id
	s.URL = url
	s.BytesReceived = 0
	s.Decoding = false
	s.Error = ""
	s.Retryable = false
}

// ApplyEvent folds one progress event into the state.
func (s *State) ApplyEvent(event fetch.Event) {
	switch e := event.(type) {
	case fetch.BytesReceived:
		s.BytesReceived += e.Count
	case fetch.DecodeStarted:
		s.Decoding = true
	}
}

// ApplyResult folds the terminal result into the state. Cancellation is a
// controlled abort: it clears the error text and leaves the attempt
// retryable instead of presenting a failure.
func (s *State) ApplyResult(res *task.Result[*decode.Artifact]) {
	s.Decoding = false
	s.Retryable = true

	if res.Canceled() {
		s.Status = StatusCanceled
		s.Error = ""
		return
	}
	if res.Err != nil {
		s.Status = StatusFailed
		s.Error = res.Err.Error()
		return
	}

	s.Status = StatusDone
	s.Error = ""
	s.Artifact = &ArtifactInfo{
		URL:       res.Value.Label,
		Format:    res.Value.Format,
		Width:     res.Value.Width,
		Height:    res.Value.Height,
		SizeBytes: res.Value.SizeBytes,
	}
}

// FormatBytes renders a byte count the way the demos label download sizes.
func FormatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
