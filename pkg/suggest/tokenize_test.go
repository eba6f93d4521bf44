package suggest

import (
	"iter"
	"slices"
	"testing"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		key      string
		min      int
		expected []string
	}{
		{"fox", 1, []string{"f", "o", "x"}},
		{"fox", 2, []string{"fo", "x"}},
		{"fox", 3, []string{"fox"}},
		{"fox", 4, nil},
		{"", 1, nil},
		{"ñu", 2, []string{"ñu"}},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, tokenize(CharTokenizer{}, tc.key, tc.min), "key %q min %d", tc.key, tc.min)
	}
}

func TestGraphemeTokenizer(t *testing.T) {
	toks := slices.Collect(GraphemeTokenizer{}.Tokens("éa🇩🇪"))
	require.Equal(t, []string{"é", "a", "🇩🇪"}, toks)

	require.Equal(t, []string{"éa", "🇩🇪"}, tokenize(GraphemeTokenizer{}, "éa🇩🇪", 2))
}

func TestTokenizerByName(t *testing.T) {
	tk, err := TokenizerByName("graphemes")
	require.NoError(t, err)
	require.IsType(t, GraphemeTokenizer{}, tk)

	tk, err = TokenizerByName("")
	require.NoError(t, err)
	require.IsType(t, CharTokenizer{}, tk)

	_, err = TokenizerByName("words")
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestTokenizerFunc(t *testing.T) {
	pairs := TokenizerFunc(func(key string) iter.Seq[string] {
		return func(yield func(string) bool) {
			for i := 0; i < len(key); i += 2 {
				if !yield(key[i:min(i+2, len(key))]) {
					return
				}
			}
		}
	})
	require.Equal(t, []string{"ab", "cd", "e"}, tokenize(pairs, "abcde", 1))
}

func TestExpand(t *testing.T) {
	got := slices.Collect(expand("àéè", DefaultExpandRules, false))
	require.Equal(t, []string{"àéè", "aéè", "àeè", "àée"}, got)

	got = slices.Collect(expand("Æon", DefaultExpandRules, false))
	require.Equal(t, []string{"Æon", "aon", "aeon"}, got)

	require.Equal(t, []string{"plain"}, slices.Collect(expand("plain", DefaultExpandRules, true)))
	require.Equal(t, []string{"crème", "creme"}, slices.Collect(expand("crème", nil, true)))
}
