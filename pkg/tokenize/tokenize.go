// Package tokenize implements WordPiece-style subword tokenization against a
// fixed [vocab.Vocabulary].
//
// Each word produced by the [Segmenter] is greedily consumed as a sequence of
// known subwords using longest-match-with-backward-shrink: the candidate
// starts as the whole (remaining) word and loses one trailing character per
// failed lookup until a vocabulary hit is found. Non-initial subwords are
// looked up with the "##" continuation prefix, as in BERT vocabularies. A
// word with no decomposition at all contributes exactly one token mapped to
// the reserved unknown ID.
//
// Token text is always a slice of the original input — case folding is
// applied only for vocabulary lookup, never to the emitted tokens.
//
// A [Tokenizer] is read-only after construction and safe for concurrent use.
package tokenize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/voxsight/voxsight/pkg/vocab"
)

const (
	// continuationPrefix marks non-initial subwords in the vocabulary
	// (e.g. "##ing").
	continuationPrefix = "##"

	// maxWordLen is the maximum word length, in runes, the tokenizer will
	// attempt to decompose. Longer words are skipped entirely and contribute
	// no tokens, so callers must not assume the output covers every
	// character of the input.
	maxWordLen = 128
)

// TokenizedString pairs the original text with its ordered subword tokens
// and their token IDs. Tokens are slices of Text, not copies.
//
// Invariant: len(Tokens) == len(IDs).
type TokenizedString struct {
	Text   string
	Tokens []string
	IDs    []int
}

// Option configures a [Tokenizer].
type Option func(*Tokenizer)

// WithSegmenter overrides the word-boundary segmenter.
// Default: [UAX29Segmenter].
func WithSegmenter(seg Segmenter) Option {
	return func(t *Tokenizer) {
		t.seg = seg
	}
}

// Tokenizer splits raw text into WordPiece subword tokens.
type Tokenizer struct {
	vocab *vocab.Vocabulary
	seg   Segmenter
}

// New returns a [Tokenizer] over v configured with the supplied options.
func New(v *vocab.Vocabulary, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		vocab: v,
		seg:   UAX29Segmenter{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Tokenize splits text into subword tokens and their IDs. Empty input yields
// empty (non-nil) token and ID slices.
//
// Tokenize is a pure function of (text, vocabulary): calling it twice with
// the same input yields identical output.
func (t *Tokenizer) Tokenize(text string) TokenizedString {
	tokens := []string{}
	ids := []int{}

	for _, span := range t.seg.Words(text) {
		word := text[span.Start:span.End]
		if utf8.RuneCountInString(word) > maxWordLen {
			continue
		}

		wordTokens, wordIDs := t.wordpieces(word)
		tokens = append(tokens, wordTokens...)
		ids = append(ids, wordIDs...)
	}

	// Parallel-sequence invariant; a mismatch means the tokenizer itself is
	// broken, not the input.
	if len(tokens) != len(ids) {
		panic(fmt.Sprintf("tokenize: %d tokens but %d ids", len(tokens), len(ids)))
	}

	return TokenizedString{Text: text, Tokens: tokens, IDs: ids}
}

// wordpieces decomposes a single word into known subwords, or into one
// unknown-mapped token when no decomposition exists.
func (t *Tokenizer) wordpieces(word string) (tokens []string, ids []int) {
	// off is the byte offset of the remaining (unmatched) suffix.
	off := 0
	foundFirst := false

	for off < len(word) {
		prefix := ""
		if foundFirst {
			prefix = continuationPrefix
		}

		// Greedy longest match: start with the whole remaining suffix and
		// drop one trailing rune per failed lookup.
		end := len(word)
		matched := false
		for end > off {
			candidate := prefix + strings.ToLower(word[off:end])
			if t.vocab.Contains(candidate) {
				tokens = append(tokens, word[off:end])
				ids = append(ids, t.vocab.TokenID(candidate))
				off = end
				foundFirst = true
				matched = true
				break
			}
			_, size := utf8.DecodeLastRuneInString(word[off:end])
			end -= size
		}

		if !matched {
			// No piece of the remaining suffix is in the vocabulary: abandon
			// the whole word, discarding any partial subwords found so far.
			return []string{word}, []int{t.vocab.Unknown()}
		}
	}

	return tokens, ids
}
