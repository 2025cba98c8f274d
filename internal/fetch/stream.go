package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChunkStream is an open byte stream with a declared content kind. Next
// yields chunks in order and returns io.EOF when the body is exhausted.
type ChunkStream interface {
	// ContentKind returns the declared kind of the streamed content, or
	// ErrMissingContentKind when the source never declared one.
	ContentKind() (string, error)

	// Source identifies where the bytes come from, for labeling artifacts.
	Source() string

	// Next returns the next chunk. It honors ctx and surfaces read
	// failures as *TransportError.
	Next(ctx context.Context) ([]byte, error)

	Close() error
}

// Opener opens a ChunkStream for a source URL.
type Opener interface {
	Open(ctx context.Context, url string) (ChunkStream, error)
}

// Options configures the HTTP opener.
type Options struct {
	// UserAgent identifies the client. Image hosts reject unidentified
	// clients with 403, so this must not be empty.
	UserAgent string

	// Timeout bounds the whole request, connection to last byte.
	// Default: 5m
	Timeout time.Duration

	// ChunkSize is the read buffer size per chunk.
	// Default: 32 KiB
	ChunkSize int

	// MaxBodySize caps how many bytes a stream may deliver.
	// Default: 100 MiB
	MaxBodySize int64
}

// DefaultUserAgent mirrors a mainstream browser signature; several image
// hosts answer 403 to anything less familiar.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:105.0) Gecko/20100101"

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:   DefaultUserAgent,
		Timeout:     5 * time.Minute,
		ChunkSize:   32 * 1024,
		MaxBodySize: 100 * 1024 * 1024,
	}
}

// HTTPOpener opens chunk streams over HTTP GET.
type HTTPOpener struct {
	client *http.Client
	opts   Options
}

// NewHTTPOpener creates an opener with the given options; zero fields fall
// back to DefaultOptions.
func NewHTTPOpener(opts Options) *HTTPOpener {
	defaults := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaults.ChunkSize
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaults.MaxBodySize
	}
	return &HTTPOpener{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Open issues the GET and validates the response status. The body is not
// read here; the returned stream delivers it chunk by chunk.
func (o *HTTPOpener) Open(ctx context.Context, url string) (ChunkStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("User-Agent", o.opts.UserAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &TransportError{Op: "request", Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	source := url
	if resp.Request != nil && resp.Request.URL != nil {
		source = resp.Request.URL.String()
	}

	return &httpStream{
		resp:      resp,
		source:    source,
		buf:       make([]byte, o.opts.ChunkSize),
		remaining: o.opts.MaxBodySize,
	}, nil
}

type httpStream struct {
	resp      *http.Response
	source    string
	buf       []byte
	remaining int64
	pending   error
}

func (s *httpStream) ContentKind() (string, error) {
	kind := s.resp.Header.Get("Content-Type")
	if kind == "" {
		return "", ErrMissingContentKind
	}
	return kind, nil
}

func (s *httpStream) Source() string {
	return s.source
}

func (s *httpStream) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	if s.pending != nil {
		err := s.pending
		s.pending = nil
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &TransportError{Op: "read", Err: err}
	}

	n, err := s.resp.Body.Read(s.buf)
	if n > 0 {
		s.remaining -= int64(n)
		if s.remaining < 0 {
			return nil, &TransportError{Op: "read", Err: fmt.Errorf("body exceeds size limit")}
		}
		chunk := make([]byte, n)
		copy(chunk, s.buf[:n])
		if err != nil {
			// Deliver the bytes now, the error on the next call.
			s.pending = err
		}
		return chunk, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	return nil, nil
}

func (s *httpStream) Close() error {
	return s.resp.Body.Close()
}
