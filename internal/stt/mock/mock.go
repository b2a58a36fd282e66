// Package mock provides scriptable stt implementations for tests.
package mock

import (
	"context"
	"sync"

	"github.com/voxsight/voxsight/internal/stt"
)

// Session is a channel-fed stt.Session for tests. Feed transcripts with
// Emit, end the session with Fail or Close.
type Session struct {
	ch chan stt.Transcript

	mu     sync.Mutex
	err    error
	closed bool
}

var _ stt.Session = (*Session)(nil)

// NewSession returns a session with a buffered transcript channel so tests
// can emit without a consumer goroutine.
func NewSession() *Session {
	return &Session{ch: make(chan stt.Transcript, 16)}
}

// Emit delivers one transcript to the session's channel. Emit after Close
// or Fail panics, mirroring a send on a closed channel.
func (s *Session) Emit(t stt.Transcript) {
	s.ch <- t
}

// Fail ends the session with a terminal error.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.closed = true
	close(s.ch)
}

// Transcripts implements stt.Session.
func (s *Session) Transcripts() <-chan stt.Transcript { return s.ch }

// Err implements stt.Session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements stt.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	return nil
}

// ListenCall records the arguments of one Provider.Listen invocation.
type ListenCall struct {
	Ctx context.Context
}

// Provider is a recording stt.Provider that hands out pre-scripted
// sessions in order. When the script is exhausted it returns Err (or a
// fresh empty session when Err is nil).
type Provider struct {
	mu       sync.Mutex
	sessions []*Session
	calls    []ListenCall

	// Err is returned by Listen once scripted sessions run out.
	Err error
}

var _ stt.Provider = (*Provider)(nil)

// NewProvider returns a provider that serves the given sessions in order.
func NewProvider(sessions ...*Session) *Provider {
	return &Provider{sessions: sessions}
}

// Listen implements stt.Provider.
func (p *Provider) Listen(ctx context.Context) (stt.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ListenCall{Ctx: ctx})
	if len(p.sessions) == 0 {
		if p.Err != nil {
			return nil, p.Err
		}
		return NewSession(), nil
	}
	s := p.sessions[0]
	p.sessions = p.sessions[1:]
	return s, nil
}

// Calls returns a copy of all recorded Listen invocations.
func (p *Provider) Calls() []ListenCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ListenCall, len(p.calls))
	copy(out, p.calls)
	return out
}
