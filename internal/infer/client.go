// Package infer is the HTTP client for the remote inference endpoint.
//
// The endpoint accepts a single-parameter query (?q=<utterance>) and returns
// the raw prediction payload decoded by [prediction.Decode]. The upstream
// service specifies no timeout of its own, so the client imposes a bounded
// one and surfaces expiry as a retryable [*NetworkError]; a circuit breaker
// keeps a flapping endpoint from being hammered on every utterance.
//
// Transport-level failures become [*NetworkError] (the session should stay
// listening and retry on the next utterance). Decode failures pass through
// unchanged so callers can distinguish a broken network from a broken
// payload.
package infer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voxsight/voxsight/internal/observe"
	"github.com/voxsight/voxsight/pkg/prediction"
)

const (
	// DefaultTimeout bounds one inference round trip.
	DefaultTimeout = 8 * time.Second

	// maxResponseBytes caps how much of a response body the client reads.
	maxResponseBytes = 1 << 20
)

// ErrEmptyUtterance is returned by [Client.Predict] for empty or
// whitespace-only input; the endpoint has nothing to classify.
var ErrEmptyUtterance = errors.New("infer: empty utterance")

// NetworkError wraps a transport-level failure (connection refused, timeout,
// non-2xx status, open breaker). It is always retryable: the listening
// session stays up and the next debounced utterance gets a fresh attempt.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("infer: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error { return e.Err }

// Option configures a [Client].
type Option func(*Client)

// WithTimeout bounds each inference call. Default: [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBreaker tunes the circuit breaker: maxFailures consecutive transport
// failures open it, and it stays open for resetTimeout before probing.
func WithBreaker(maxFailures int, resetTimeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = newBreaker(maxFailures, resetTimeout)
	}
}

// WithMetrics attaches a metrics instance for call accounting.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client calls the remote inference endpoint. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *breaker
	metrics    *observe.Metrics
}

// NewClient returns a [Client] for the endpoint at rawURL.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("infer: parse endpoint url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("infer: endpoint url %q: unsupported scheme %q", rawURL, u.Scheme)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		breaker:    newBreaker(0, 0),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Predict sends text to the inference endpoint and decodes the result.
//
// Error classification:
//   - [*NetworkError] — transport failure, timeout, non-2xx response, or
//     open breaker; retryable.
//   - prediction decode errors — the payload arrived but is unusable;
//     passed through unchanged.
func (c *Client) Predict(ctx context.Context, text string) (*prediction.Prediction, error) {
	if text == "" {
		return nil, ErrEmptyUtterance
	}

	start := time.Now()
	var body []byte
	err := c.breaker.execute(func() error {
		var fetchErr error
		body, fetchErr = c.fetch(ctx, text)
		return fetchErr
	})
	if err != nil {
		c.recordInference(ctx, "network_error", start)
		if errors.Is(err, ErrBreakerOpen) {
			return nil, &NetworkError{Op: "call", Err: err}
		}
		var ne *NetworkError
		if errors.As(err, &ne) {
			return nil, err
		}
		return nil, &NetworkError{Op: "call", Err: err}
	}

	pred, err := prediction.Decode(body)
	if err != nil {
		c.recordInference(ctx, "decode_error", start)
		return nil, err
	}

	c.recordInference(ctx, "ok", start)
	return pred, nil
}

// fetch performs the HTTP round trip and returns the raw payload.
func (c *Client) fetch(ctx context.Context, text string) ([]byte, error) {
	u := *c.baseURL
	q := u.Query()
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &NetworkError{Op: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: "request", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}
	return body, nil
}

func (c *Client) recordInference(ctx context.Context, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordInference(ctx, status, time.Since(start).Seconds())
	}
}
