// Package stdinfeed provides a line-oriented stt.Provider for local use and
// demos. Each line read from the input is delivered as one final transcript,
// so typed commands flow through the pipeline exactly like settled speech.
package stdinfeed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/voxsight/voxsight/internal/stt"
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithReader sets the input source. The default is os.Stdin.
func WithReader(r io.Reader) Option {
	return func(p *Provider) {
		p.r = r
	}
}

// Provider implements stt.Provider by reading transcript lines from an input
// stream.
type Provider struct {
	r io.Reader
}

var _ stt.Provider = (*Provider)(nil)

// New creates a Provider reading from os.Stdin unless overridden with
// [WithReader].
func New(opts ...Option) *Provider {
	p := &Provider{r: os.Stdin}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Listen starts scanning the input. The session ends when the input reaches
// EOF, the scan fails, Close is called, or ctx is cancelled. A read that is
// already blocked on the input cannot be interrupted; the session stops
// delivering and finishes after the next line (or EOF) arrives.
func (p *Provider) Listen(ctx context.Context) (stt.Session, error) {
	sess := &session{
		ch:   make(chan stt.Transcript, 16),
		done: make(chan struct{}),
	}
	go sess.scanLoop(ctx, bufio.NewScanner(p.r))
	return sess, nil
}

// session is one scan of the input stream. It implements stt.Session.
type session struct {
	ch chan stt.Transcript

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
	s.once.Do(func() { close(s.done) })
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

// scanLoop delivers one final transcript per input line until the input
// ends, then closes the transcript channel. EOF is a clean stop.
func (s *session) scanLoop(ctx context.Context, sc *bufio.Scanner) {
	defer close(s.ch)
	defer s.Close()

	for sc.Scan() {
		select {
		case s.ch <- stt.Transcript{Text: sc.Text(), Final: true}:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.setErr(fmt.Errorf("stdinfeed: read: %w: %w", stt.ErrUnavailable, err))
	}
}
