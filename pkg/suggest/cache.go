package suggest

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	phraseCacheName = "phrase"
	wordCacheName   = "word"
)

type phraseEntry[T comparable] struct {
	matches []T
	words   []string
}

// phraseCache holds finished phrase results keyed by phraseKey.
type phraseCache[T comparable] struct {
	entries *lru.Cache[string, phraseEntry[T]]
	hits    int
	misses  int
}

func newPhraseCache[T comparable](size int) (*phraseCache[T], error) {
	entries, err := lru.New[string, phraseEntry[T]](size)
	if err != nil {
		return nil, fmt.Errorf("phrase cache: %w", err)
	}
	return &phraseCache[T]{entries: entries}, nil
}

// phraseKey leads with the limit, which holds no colon, so a limited query
// never shares a key with the same phrase unlimited or with any other phrase.
func phraseKey(phrase string, limit int) string {
	return strconv.Itoa(limit) + ":" + phrase
}

// tokenPath keys the word cache by the edges a lookup walks. Each token is
// length-prefixed: distinct token sequences get distinct paths, and a token
// prefix of a sequence is always a string prefix of its path.
func tokenPath(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(strconv.Itoa(len(tok)))
		b.WriteByte(':')
		b.WriteString(tok)
	}
	return b.String()
}

func (pc *phraseCache[T]) get(key string) (phraseEntry[T], bool) {
	e, ok := pc.entries.Get(key)
	if ok {
		pc.hits++
	} else {
		pc.misses++
	}
	return e, ok
}

func (pc *phraseCache[T]) put(key string, e phraseEntry[T]) {
	pc.entries.Add(key, e)
}

func (pc *phraseCache[T]) purge() {
	pc.entries.Purge()
}

// wordCache maps a token path to its trie node. A nil node is a cached miss.
//
// Nodes are only ever added to the tree, so a cached node stays correct until Clear.
// A cached miss goes stale once a key whose path extends it is inserted; misses are
// mirrored into a patricia trie so an insertion can find them with one prefix walk.
type wordCache[T comparable] struct {
	nodes  *lru.Cache[string, *Node[T]]
	misses *patricia.Trie
	hits   int
	missed int
}

func newWordCache[T comparable](size int) (*wordCache[T], error) {
	wc := &wordCache[T]{misses: patricia.NewTrie()}
	nodes, err := lru.NewWithEvict[string, *Node[T]](size, func(word string, _ *Node[T]) {
		wc.misses.Delete(patricia.Prefix(word))
	})
	if err != nil {
		return nil, fmt.Errorf("word cache: %w", err)
	}
	wc.nodes = nodes
	return wc, nil
}

func (wc *wordCache[T]) get(path string) (*Node[T], bool) {
	n, ok := wc.nodes.Get(path)
	if ok {
		wc.hits++
	} else {
		wc.missed++
	}
	return n, ok
}

func (wc *wordCache[T]) put(path string, n *Node[T]) {
	wc.nodes.Add(path, n)
	if n == nil {
		wc.misses.Set(patricia.Prefix(path), true)
	} else {
		wc.misses.Delete(patricia.Prefix(path))
	}
}

// invalidatePrefixesOf drops every cached miss whose path is a prefix of
// path and returns how many were dropped.
func (wc *wordCache[T]) invalidatePrefixesOf(path string) int {
	var stale []string
	err := wc.misses.VisitPrefixes(patricia.Prefix(path), func(p patricia.Prefix, _ patricia.Item) error {
		stale = append(stale, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting word cache misses: %v", err)
		wc.purge()
		return 0
	}
	if wc.misses.Get(patricia.Prefix(path)) != nil && !slices.Contains(stale, path) {
		stale = append(stale, path)
	}
	for _, w := range stale {
		wc.nodes.Remove(w)
		wc.misses.Delete(patricia.Prefix(w))
	}
	return len(stale)
}

func (wc *wordCache[T]) purge() {
	wc.nodes.Purge()
	wc.misses = patricia.NewTrie()
}

func (wc *wordCache[T]) len() int {
	return wc.nodes.Len()
}
