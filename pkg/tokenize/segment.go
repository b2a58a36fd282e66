package tokenize

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Span is a half-open byte range [Start, End) into the text being tokenized.
type Span struct {
	Start int
	End   int
}

// Segmenter splits text into word-level spans. Implementations must not
// return whitespace-only spans and must return spans in left-to-right order
// without overlap.
//
// Implementations must be safe for concurrent use.
type Segmenter interface {
	Words(text string) []Span
}

// Compile-time assertion that UAX29Segmenter satisfies Segmenter.
var _ Segmenter = UAX29Segmenter{}

// UAX29Segmenter segments text into words using Unicode Standard Annex #29
// word-boundary rules. Punctuation runs become their own spans; whitespace
// spans are discarded. This matches the behaviour of platform word
// tokenizers for whitespace/punctuation-segmentable languages.
//
// The zero value is ready to use.
type UAX29Segmenter struct{}

// Words implements [Segmenter].
func (UAX29Segmenter) Words(text string) []Span {
	var spans []Span

	state := -1
	offset := 0
	remaining := text
	for len(remaining) > 0 {
		var word string
		word, remaining, state = uniseg.FirstWordInString(remaining, state)

		if strings.TrimSpace(word) != "" {
			spans = append(spans, Span{Start: offset, End: offset + len(word)})
		}
		offset += len(word)
	}
	return spans
}
