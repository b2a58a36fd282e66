// Package vocab provides the immutable subword vocabulary used by the
// WordPiece tokenizer.
//
// A vocabulary is loaded once at process start from a newline-delimited text
// resource — one subword per line, with the line number (zero-based) acting
// as the subword's token ID. Four reserved marker lines must be present:
//
//	[UNK]  — the unknown-token marker
//	[PAD]  — the padding marker
//	[SEP]  — the sentence-separator marker
//	[CLS]  — the classification-start marker
//
// A vocabulary file missing any of these markers is considered a broken
// build artifact, not a runtime condition: [Load] fails with an error
// wrapping [ErrMissingMarker] and the caller should treat it as fatal.
//
// A [Vocabulary] is immutable after construction and safe for concurrent
// lock-free use from any number of goroutines.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reserved marker strings that must appear in every vocabulary file.
const (
	markerUnknown       = "[UNK]"
	markerPadding       = "[PAD]"
	markerSeparator     = "[SEP]"
	markerClassifyStart = "[CLS]"
)

// ErrMissingMarker is returned (wrapped) by [Load] and [LoadFromReader] when
// one of the four reserved marker lines is absent from the vocabulary file.
var ErrMissingMarker = errors.New("vocab: reserved marker missing")

// Vocabulary is an immutable mapping from subword string to dense,
// zero-based integer token ID.
type Vocabulary struct {
	ids map[string]int

	unknown       int
	padding       int
	separator     int
	classifyStart int
}

// Load reads a newline-delimited vocabulary file from path.
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open %q: %w", path, err)
	}
	defer f.Close()

	v, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("vocab: load %q: %w", path, err)
	}
	return v, nil
}

// LoadFromReader reads a newline-delimited vocabulary from r. Each line is
// one subword; the zero-based line number becomes the subword's token ID.
// Lines are taken verbatim — no trimming beyond the trailing newline — so a
// vocabulary may legitimately contain subwords with leading punctuation.
//
// Returns an error wrapping [ErrMissingMarker] if any reserved marker is
// absent.
func LoadFromReader(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{
		ids:           make(map[string]int),
		unknown:       -1,
		padding:       -1,
		separator:     -1,
		classifyStart: -1,
	}

	sc := bufio.NewScanner(r)
	// Individual subwords are short, but allow generous headroom for exotic
	// vocabularies.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		word := sc.Text()
		if _, dup := v.ids[word]; !dup {
			v.ids[word] = line
		}

		switch word {
		case markerUnknown:
			v.unknown = line
		case markerPadding:
			v.padding = line
		case markerSeparator:
			v.separator = line
		case markerClassifyStart:
			v.classifyStart = line
		}
		line++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read: %w", err)
	}

	for marker, id := range map[string]int{
		markerUnknown:       v.unknown,
		markerPadding:       v.padding,
		markerSeparator:     v.separator,
		markerClassifyStart: v.classifyStart,
	} {
		if id < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingMarker, marker)
		}
	}

	return v, nil
}

// TokenID returns the token ID for subword, or the reserved unknown ID when
// the subword is not in the vocabulary.
func (v *Vocabulary) TokenID(subword string) int {
	if id, ok := v.ids[subword]; ok {
		return id
	}
	return v.unknown
}

// Contains reports whether subword is present in the vocabulary.
func (v *Vocabulary) Contains(subword string) bool {
	_, ok := v.ids[subword]
	return ok
}

// Len returns the number of distinct subwords in the vocabulary.
func (v *Vocabulary) Len() int { return len(v.ids) }

// Unknown returns the reserved unknown-token ID.
func (v *Vocabulary) Unknown() int { return v.unknown }

// Padding returns the reserved padding-token ID.
func (v *Vocabulary) Padding() int { return v.padding }

// Separator returns the reserved separator-token ID.
func (v *Vocabulary) Separator() int { return v.separator }

// ClassifyStart returns the reserved classification-start token ID.
func (v *Vocabulary) ClassifyStart() int { return v.classifyStart }
