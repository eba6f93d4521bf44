package suggest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhraseKey(t *testing.T) {
	require.NotEqual(t, phraseKey("fox", 0), phraseKey("fox", 10))
	require.NotEqual(t, phraseKey("foo", 2), phraseKey("foo_2", 0))
	require.NotEqual(t, phraseKey("foo", 2), phraseKey("foo:2", 0))
	require.NotEqual(t, phraseKey("1:foo", 0), phraseKey("foo", 1))
	require.Equal(t, phraseKey("fox", 3), phraseKey("fox", 3))
}

func TestTokenPath(t *testing.T) {
	require.NotEqual(t, tokenPath([]string{"ab"}), tokenPath([]string{"a", "b"}))
	require.NotEqual(t, tokenPath([]string{"a", ""}), tokenPath([]string{"a"}))
	require.True(t, strings.HasPrefix(tokenPath([]string{"co", "o", "p"}), tokenPath([]string{"co", "o"})))
	require.Empty(t, tokenPath(nil))
}

func charPath(word string) string {
	return tokenPath(tokenize(CharTokenizer{}, word, 1))
}

func TestPhraseCache_Evicts(t *testing.T) {
	pc, err := newPhraseCache[*int](2)
	require.NoError(t, err)

	pc.put("a", phraseEntry[*int]{words: []string{"a"}})
	pc.put("b", phraseEntry[*int]{words: []string{"b"}})
	_, ok := pc.get("a")
	require.True(t, ok)

	// b is now the least recently used
	pc.put("c", phraseEntry[*int]{words: []string{"c"}})
	_, ok = pc.get("b")
	require.False(t, ok)
	_, ok = pc.get("a")
	require.True(t, ok)
	require.Equal(t, 2, pc.hits)
	require.Equal(t, 1, pc.misses)
}

func TestWordCache_InvalidatesOnlyPrefixMisses(t *testing.T) {
	wc, err := newWordCache[*int](8)
	require.NoError(t, err)

	hit := newNode[*int]()
	wc.put(charPath("ze"), hit)
	wc.put(charPath("zeb"), nil)
	wc.put(charPath("zebr"), nil)
	wc.put(charPath("zebra"), nil)
	wc.put(charPath("zoo"), nil)

	require.Equal(t, 3, wc.invalidatePrefixesOf(charPath("zebra")))

	n, ok := wc.get(charPath("ze"))
	require.True(t, ok)
	require.Same(t, hit, n)
	for _, w := range []string{"zeb", "zebr", "zebra"} {
		_, ok = wc.get(charPath(w))
		require.False(t, ok, w)
	}
	n, ok = wc.get(charPath("zoo"))
	require.True(t, ok)
	require.Nil(t, n)
}

func TestWordCache_EvictionDropsMissIndex(t *testing.T) {
	wc, err := newWordCache[*int](1)
	require.NoError(t, err)

	wc.put(charPath("abc"), nil)
	wc.put(charPath("xyz"), nil)
	require.Nil(t, wc.misses.Get([]byte(charPath("abc"))))
	require.Equal(t, 1, wc.len())

	wc.purge()
	require.Zero(t, wc.len())
	require.Zero(t, wc.invalidatePrefixesOf(charPath("xyz")))
}
