package stdinfeed_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/voxsight/voxsight/internal/stt"
	"github.com/voxsight/voxsight/internal/stt/stdinfeed"
)

// collect drains the session's transcript channel and returns everything
// delivered before it closed.
func collect(t *testing.T, sess stt.Session) []stt.Transcript {
	t.Helper()
	var got []stt.Transcript
	timeout := time.After(3 * time.Second)
	for {
		select {
		case tr, ok := <-sess.Transcripts():
			if !ok {
				return got
			}
			got = append(got, tr)
		case <-timeout:
			t.Fatal("timed out waiting for the transcript channel to close")
		}
	}
}

func TestListen_DeliversLinesAsFinalTranscripts(t *testing.T) {
	t.Parallel()

	p := stdinfeed.New(stdinfeed.WithReader(strings.NewReader("hide all walls\nselect doors\n")))
	sess, err := p.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer sess.Close()

	got := collect(t, sess)
	want := []stt.Transcript{
		{Text: "hide all walls", Final: true},
		{Text: "select doors", Final: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d transcripts, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transcript[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if err := sess.Err(); err != nil {
		t.Errorf("Err() = %v after clean EOF, want nil", err)
	}
}

func TestListen_ReadFailureReportsUnavailable(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	p := stdinfeed.New(stdinfeed.WithReader(pr))
	sess, err := p.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer sess.Close()

	go func() {
		io.WriteString(pw, "hide all\n")
		pw.CloseWithError(errors.New("tty gone"))
	}()

	got := collect(t, sess)
	if len(got) != 1 || got[0].Text != "hide all" {
		t.Fatalf("transcripts = %v, want the one line before the failure", got)
	}
	if !errors.Is(sess.Err(), stt.ErrUnavailable) {
		t.Errorf("Err() = %v, want stt.ErrUnavailable", sess.Err())
	}
}

func TestClose_IsIdempotentAndStopsDelivery(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	p := stdinfeed.New(stdinfeed.WithReader(pr))
	sess, err := p.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// The scanner is blocked on the pipe; a line written after Close must
	// unblock the loop and end the session without delivering.
	go io.WriteString(pw, "late line\n")

	if got := collect(t, sess); len(got) != 0 {
		t.Errorf("transcripts after Close = %v, want none", got)
	}
}
