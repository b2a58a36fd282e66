// Package wsfeed provides a WebSocket-backed stt.Provider. It connects to a
// transcript feed that pushes JSON frames of the form {"text": "...",
// "final": true} and surfaces them as stt transcripts. The recognition work
// itself happens on the other side of the socket.
package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxsight/voxsight/internal/stt"
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client used for the WebSocket handshake.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithHeader adds an HTTP header to the handshake request, e.g. for feed
// authentication.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		p.headers.Set(key, value)
	}
}

// Provider implements stt.Provider backed by a transcript feed WebSocket.
type Provider struct {
	feedURL    string
	httpClient *http.Client
	headers    http.Header
}

var _ stt.Provider = (*Provider)(nil)

// New creates a Provider for the given feed URL. The URL scheme must be ws
// or wss.
func New(feedURL string, opts ...Option) (*Provider, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("wsfeed: parse feed URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("wsfeed: unsupported URL scheme %q", u.Scheme)
	}
	p := &Provider{
		feedURL: feedURL,
		headers: http.Header{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Listen dials the feed and starts delivering its transcript frames. A
// handshake rejected with 401 or 403 maps to the stt authorization errors;
// any other dial failure maps to stt.ErrUnavailable.
func (p *Provider) Listen(ctx context.Context) (stt.Session, error) {
	conn, resp, err := websocket.Dial(ctx, p.feedURL, &websocket.DialOptions{
		HTTPClient: p.httpClient,
		HTTPHeader: p.headers,
	})
	if err != nil {
		return nil, dialError(resp, err)
	}

	sess := &session{
		conn: conn,
		ch:   make(chan stt.Transcript, 64),
		done: make(chan struct{}),
	}
	go sess.readLoop(ctx)
	return sess, nil
}

// dialError maps a failed handshake to the capture-layer sentinels.
func dialError(resp *http.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("wsfeed: dial: %w: %w", stt.ErrNotAuthorized, err)
		case http.StatusForbidden:
			return fmt.Errorf("wsfeed: dial: %w: %w", stt.ErrNotPermitted, err)
		}
	}
	return fmt.Errorf("wsfeed: dial: %w: %w", stt.ErrUnavailable, err)
}

// frame is the wire shape of one feed message.
type frame struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// session is one live feed connection. It implements stt.Session.
type session struct {
	conn *websocket.Conn
	ch   chan stt.Transcript

	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

var _ stt.Session = (*session)(nil)

// Transcripts implements stt.Session.
func (s *session) Transcripts() <-chan stt.Transcript { return s.ch }

// Err implements stt.Session.
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements stt.Session.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return nil
}

// setErr records the terminal error, keeping the first one.
func (s *session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// readLoop receives feed frames until the connection ends, then closes the
// transcript channel. Malformed frames are skipped.
func (s *session) readLoop(ctx context.Context) {
	defer close(s.ch)
	defer s.Close()

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				// Close was requested; not an error.
			default:
				if !errors.Is(err, context.Canceled) &&
					websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					s.setErr(fmt.Errorf("wsfeed: read: %w: %w", stt.ErrUnavailable, err))
				}
			}
			return
		}

		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}

		select {
		case s.ch <- stt.Transcript{Text: f.Text, Final: f.Final}:
		case <-s.done:
			return
		}
	}
}
