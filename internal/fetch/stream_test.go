package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func readAll(t *testing.T, s ChunkStream) []byte {
	t.Helper()
	var data []byte
	for {
		chunk, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return data
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		data = append(data, chunk...)
	}
}

func TestHTTPOpener_StreamsBodyInChunks(t *testing.T) {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = byte(i)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("expected test-agent user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	opener := NewHTTPOpener(Options{UserAgent: "test-agent", ChunkSize: 64, Timeout: 5 * time.Second})
	stream, err := opener.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer stream.Close()

	kind, err := stream.ContentKind()
	if err != nil {
		t.Fatalf("ContentKind error: %v", err)
	}
	if kind != "image/png" {
		t.Errorf("expected image/png, got %q", kind)
	}
	if stream.Source() != server.URL {
		t.Errorf("expected source %q, got %q", server.URL, stream.Source())
	}

	got := readAll(t, stream)
	if len(got) != len(body) {
		t.Fatalf("expected %d bytes, got %d", len(body), len(got))
	}
	for i := range body {
		if got[i] != body[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
}

func TestHTTPOpener_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer server.Close()

	opener := NewHTTPOpener(Options{})
	_, err := opener.Open(context.Background(), server.URL)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestHTTPOpener_MissingContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Registering an empty Content-Type suppresses sniffing, so the
		// response carries no usable kind.
		w.Header().Set("Content-Type", "")
		w.Write([]byte("data"))
	}))
	defer server.Close()

	opener := NewHTTPOpener(Options{})
	stream, err := opener.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer stream.Close()

	if _, err := stream.ContentKind(); !errors.Is(err, ErrMissingContentKind) {
		t.Errorf("expected ErrMissingContentKind, got %v", err)
	}
}

func TestHTTPOpener_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	opener := NewHTTPOpener(Options{ChunkSize: 512, MaxBodySize: 1024})
	stream, err := opener.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer stream.Close()

	var lastErr error
	for {
		_, err := stream.Next(context.Background())
		if err != nil {
			lastErr = err
			break
		}
	}

	var transportErr *TransportError
	if !errors.As(lastErr, &transportErr) {
		t.Fatalf("expected TransportError once the limit is crossed, got %v", lastErr)
	}
}

func TestHTTPStream_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("chunky"))
	}))
	defer server.Close()

	opener := NewHTTPOpener(Options{})
	stream, err := opener.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = stream.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
