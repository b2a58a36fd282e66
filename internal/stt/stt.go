// Package stt defines the transcript stream surface the pipeline consumes.
//
// Speech capture and on-device recognition are external collaborators: the
// pipeline only sees an asynchronous, potentially-infinite, restartable
// sequence of transcript text values. A [Provider] opens one listening
// [Session] at a time; the session's channel closes when listening stops,
// the context is cancelled, or the capture layer fails terminally.
//
// Capture-layer failures ([ErrUnavailable], [ErrNotAuthorized],
// [ErrNotPermitted]) end the session and are reported by [Session.Err];
// they are not retried automatically.
package stt

import (
	"context"
	"errors"
)

// Terminal capture-layer errors. Each ends the listening session it
// occurred in.
var (
	// ErrUnavailable indicates the recognition service cannot run at all.
	ErrUnavailable = errors.New("stt: recognizer unavailable")

	// ErrNotAuthorized indicates speech recognition authorization was denied.
	ErrNotAuthorized = errors.New("stt: not authorized to recognize speech")

	// ErrNotPermitted indicates audio capture permission was denied.
	ErrNotPermitted = errors.New("stt: not permitted to record audio")
)

// Transcript is one recognition result. Partial (interim) and final
// transcripts share this type; partials for the same utterance supersede
// each other.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// Final indicates an authoritative end-of-utterance result.
	Final bool
}

// Session is one open listening session.
//
// Implementations must be safe for concurrent use.
type Session interface {
	// Transcripts returns the session's transcript channel. It is closed
	// when the session ends for any reason.
	Transcripts() <-chan Transcript

	// Err returns the terminal error that ended the session, or nil for a
	// clean stop. Valid only after the Transcripts channel has closed.
	Err() error

	// Close stops the session and releases capture resources. Close is
	// idempotent and must release resources on every exit path.
	Close() error
}

// Provider opens listening sessions against some capture backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Listen starts a new session. The session ends when ctx is cancelled,
	// Close is called, or the capture layer fails terminally.
	Listen(ctx context.Context) (Session, error)
}
