package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent with every request unless Options overrides it.
const DefaultUserAgent = "SheetsExporter"

// DefaultTimeout bounds a single export request.
const DefaultTimeout = 60 * time.Second

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests. Zero disables the timeout.
	// Default: 60s
	Timeout time.Duration

	// UserAgent is sent as the User-Agent header.
	// Default: "SheetsExporter"
	UserAgent string

	// Session attaches credentials to each request. Nil means anonymous.
	Session Session

	// Transport overrides the underlying round tripper (tests, proxies).
	Transport http.RoundTripper
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Status is the status line text, e.g. "200 OK".
	Status string

	// ContentType is the response Content-Type header, possibly empty.
	ContentType string

	// Body is the complete response body.
	Body []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client wraps HTTP operations with export-specific configuration.
//
// Client provides:
//   - Configured User-Agent, Accept and Cache-Control headers
//   - Credential injection through a Session
//   - Timeout handling
//   - Full-body reads with optional progress callbacks
//
// Client never retries: a failed request is reported once.
//
// Example usage:
//
//	client := NewClient(Options{Session: NewCookieSession("SID=...")})
//
//	resp, err := client.Get(ctx, exportURL, nil)
//	if err != nil {
//	    return err // transport failure
//	}
//	if !resp.OK() {
//	    return fmt.Errorf("HTTP %d", resp.StatusCode)
//	}
type Client struct {
	httpClient *http.Client
	userAgent  string
	session    Session
}

// NewClient creates a new HTTP client with the given options.
//
// Empty fields in opts fall back to DefaultOptions, except Timeout where
// zero means no timeout.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
		session:   opts.Session,
	}
}

// ProgressFunc receives the bytes read so far and the Content-Length,
// which is -1 when the server did not send one.
type ProgressFunc func(read, total int64)

// countingReader reports body progress as it is consumed.
type countingReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.read += int64(n)
		cr.fn(cr.read, cr.total)
	}
	return n, err
}

// Get performs a GET request and returns the fully read response.
//
// Unlike a plain http.Get, a non-2xx status is not an error: the caller
// receives the Response and decides. An error is returned only when:
//   - The request cannot be built
//   - The transport fails (DNS, connection reset, timeout, cancellation)
//   - Reading the body fails
//
// onProgress is optional and receives (bytesRead, contentLength).
//
// Example:
//
//	resp, err := client.Get(ctx, url, func(read, total int64) {
//	    fmt.Printf("%d bytes\r", read)
//	})
func (c *Client) Get(ctx context.Context, url string, onProgress ProgressFunc) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Cache-Control", "no-cache")

	if c.session != nil {
		if err := c.session.Apply(req); err != nil {
			return nil, fmt.Errorf("apply session: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if onProgress != nil {
		body = &countingReader{r: resp.Body, total: resp.ContentLength, fn: onProgress}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
