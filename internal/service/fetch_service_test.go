package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/imgpoll/internal/config"
	"github.com/veranemoloko/imgpoll/internal/fetch"
	"github.com/veranemoloko/imgpoll/internal/task"
	"github.com/veranemoloko/imgpoll/internal/view"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for x := 0; x < 16; x++ {
		for y := 0; y < 9; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 28), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func testService(server *httptest.Server) *FetchService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		FetchTimeout:  5 * time.Second,
		ChunkSize:     256,
		MaxBodySize:   1 << 20,
		QueueCapacity: 16,
		UserAgent:     "imgpoll-test",
	}
	opener := fetch.NewHTTPOpener(fetch.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		ChunkSize:   cfg.ChunkSize,
		MaxBodySize: cfg.MaxBodySize,
	})
	worker := fetch.NewWorker(opener, nil, nil, logger)
	return NewFetchService(worker, cfg, logger)
}

func pollUntil(t *testing.T, s *FetchService, done func(view.State) bool) view.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		state := s.Poll()
		if done(state) {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the expected state")
	return view.State{}
}

func TestFetchService_SuccessfulFetch(t *testing.T) {
	body := testPNG(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	s := testService(server)

	id, err := s.Spawn(server.URL)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	state := pollUntil(t, s, func(st view.State) bool { return st.Status != view.StatusFetching })

	assert.Equal(t, view.StatusDone, state.Status)
	assert.Equal(t, id, state.AttemptID)
	assert.Equal(t, len(body), state.BytesReceived)
	if assert.NotNil(t, state.Artifact) {
		assert.Equal(t, 16, state.Artifact.Width)
		assert.Equal(t, 9, state.Artifact.Height)
		assert.Equal(t, len(body), state.Artifact.SizeBytes)
	}
	assert.NotNil(t, s.Artifact())
	assert.False(t, s.Busy())
}

func TestFetchService_RejectsSecondSpawnUntilCanceled(t *testing.T) {
	body := testPNG(t)
	gate := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { <-gate })
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	s := testService(server)

	_, err := s.Spawn(server.URL)
	assert.NoError(t, err)

	_, err = s.Spawn(server.URL)
	assert.ErrorIs(t, err, task.ErrBusy)

	s.Cancel()
	close(gate)

	state := pollUntil(t, s, func(st view.State) bool { return st.Status != view.StatusFetching })
	assert.Equal(t, view.StatusCanceled, state.Status)
	assert.Empty(t, state.Error)
	assert.True(t, state.Retryable)

	// Back to idle: the retry goes through and completes.
	_, err = s.Spawn(server.URL)
	assert.NoError(t, err)
	state = pollUntil(t, s, func(st view.State) bool { return st.Status != view.StatusFetching })
	assert.Equal(t, view.StatusDone, state.Status)
}

func TestFetchService_FailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	s := testService(server)

	_, err := s.Spawn(server.URL)
	assert.NoError(t, err)

	state := pollUntil(t, s, func(st view.State) bool { return st.Status != view.StatusFetching })
	assert.Equal(t, view.StatusFailed, state.Status)
	assert.NotEmpty(t, state.Error)
	assert.True(t, state.Retryable)
	assert.False(t, s.Busy())
}

func TestFetchService_RejectsNonImageContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	s := testService(server)

	_, err := s.Spawn(server.URL)
	assert.NoError(t, err)

	state := pollUntil(t, s, func(st view.State) bool { return st.Status != view.StatusFetching })
	assert.Equal(t, view.StatusFailed, state.Status)
	assert.Contains(t, state.Error, "text/html")
	assert.Zero(t, state.BytesReceived)
}
