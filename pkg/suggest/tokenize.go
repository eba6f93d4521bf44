package suggest

import (
	"iter"
	"strings"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/rivo/uniseg"
)

// Tokenizer turns a key into the sequence of trie edge tokens.
// Each call returns a fresh, finite sequence.
type Tokenizer interface {
	Tokens(key string) iter.Seq[string]
}

// TokenizerFunc adapts a function to Tokenizer.
type TokenizerFunc func(key string) iter.Seq[string]

func (f TokenizerFunc) Tokens(key string) iter.Seq[string] {
	return f(key)
}

// CharTokenizer yields one token per rune.
type CharTokenizer struct{}

func (CharTokenizer) Tokens(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, r := range key {
			if !yield(string(r)) {
				return
			}
		}
	}
}

// GraphemeTokenizer yields one token per user-perceived character,
// so combining marks and emoji sequences stay on a single edge.
type GraphemeTokenizer struct{}

func (GraphemeTokenizer) Tokens(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		g := uniseg.NewGraphemes(key)
		for g.Next() {
			if !yield(g.Str()) {
				return
			}
		}
	}
}

// TokenizerByName resolves the tokenizer names accepted in config files.
func TokenizerByName(name string) (Tokenizer, error) {
	switch strings.ToLower(name) {
	case "", "chars", "char", "runes":
		return CharTokenizer{}, nil
	case "graphemes", "grapheme":
		return GraphemeTokenizer{}, nil
	}
	return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "unknown tokenizer %q", name)
}

// tokenize applies prefix compression: with min > 1 the first token is the
// first min tokens joined, and keys shorter than min produce nothing.
func tokenize(tk Tokenizer, key string, min int) []string {
	var toks []string
	for tok := range tk.Tokens(key) {
		toks = append(toks, tok)
	}
	if min <= 1 {
		return toks
	}
	if len(toks) < min {
		return nil
	}
	head := strings.Join(toks[:min], "")
	return append([]string{head}, toks[min:]...)
}
