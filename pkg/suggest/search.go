package suggest

import (
	"slices"
	"time"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
)

// SearchOptions tunes SearchWith.
type SearchOptions[T comparable] struct {
	// Reducer combines per-phrase matches; nil unions them.
	Reducer Reducer[T]
	// Limit caps matches per phrase; 0 means unlimited.
	Limit int
	// List seeds the result. It is returned unchanged when there are no phrases.
	List []T
}

// Search returns the items matching every word of phrase.
func (t *Trie[T]) Search(phrase string) ([]T, error) {
	return t.SearchWith([]string{phrase}, SearchOptions[T]{})
}

// SearchWith runs every phrase and combines the results, by union or through opts.Reducer.
func (t *Trie[T]) SearchWith(phrases []string, opts SearchOptions[T]) ([]T, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	if opts.Limit < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "limit must be a non-negative integer, got %d", opts.Limit)
	}
	if opts.Reducer != nil && !t.opts.IndexField.Valid() {
		return nil, apperrors.ErrIndexFieldRequired
	}
	if len(phrases) == 0 {
		return opts.List, nil
	}

	start := time.Now()
	var results []T
	if opts.Reducer != nil {
		opts.Reducer.Reset(ResetContext[T]{
			KeyFields: slices.Clone(t.indexFields),
			List:      opts.List,
			Options:   t.opts,
			Phrases:   phrases,
		})
		for i, phrase := range phrases {
			folded := t.fold(phrase)
			entry, err := t.lookup(folded, opts.Limit)
			if err != nil {
				return nil, err
			}
			err = opts.Reducer.Reduce(ReduceContext[T]{
				Phrase:           phrase,
				IgnoreCasePhrase: folded,
				Index:            i,
				Matches:          slices.Clone(entry.matches),
				Words:            slices.Clone(entry.words),
			})
			if err != nil {
				return nil, err
			}
		}
		results = opts.Reducer.Matches()
	} else {
		union, err := t.newAggregate()
		if err != nil {
			return nil, err
		}
		if err := union.Add(opts.List...); err != nil {
			return nil, err
		}
		for _, phrase := range phrases {
			entry, err := t.lookup(t.fold(phrase), opts.Limit)
			if err != nil {
				return nil, err
			}
			if err := union.Add(entry.matches...); err != nil {
				return nil, err
			}
		}
		results = union.All()
	}

	t.metrics.SearchCompleted(len(phrases), len(results), time.Since(start))
	return results, nil
}

func (t *Trie[T]) newAggregate() (*hasharray.HashArray[T], error) {
	return hasharray.New[T](t.indexFields)
}

// lookup resolves one case-folded phrase through the phrase cache.
func (t *Trie[T]) lookup(phrase string, limit int) (phraseEntry[T], error) {
	key := phraseKey(phrase, limit)
	if t.phrases != nil {
		e, ok := t.phrases.get(key)
		t.metrics.CacheLookup(phraseCacheName, ok)
		if ok {
			return e, nil
		}
	}

	words := []string{phrase}
	if t.opts.SplitOnGet != nil {
		words = t.opts.SplitOnGet.Split(phrase, -1)
	}

	var ret *hasharray.HashArray[T]
	for _, w := range words {
		tokens := tokenize(t.opts.Tokenizer, w, t.opts.Min)
		if len(tokens) == 0 {
			continue
		}
		temp, err := t.newAggregate()
		if err != nil {
			return phraseEntry[T]{}, err
		}
		if n := t.findNode(tokens); n != nil {
			if err := aggregate(n, temp, limit); err != nil {
				return phraseEntry[T]{}, err
			}
		}
		if ret == nil {
			ret = temp
		} else {
			ret = ret.Intersection(temp)
		}
	}

	e := phraseEntry[T]{matches: []T{}, words: words}
	if ret != nil {
		e.matches = ret.All()
	}
	if t.phrases != nil {
		t.phrases.put(key, e)
	}
	return e, nil
}

// findNode walks tokens from the root, caching hits and misses per token path.
func (t *Trie[T]) findNode(tokens []string) *Node[T] {
	path := tokenPath(tokens)
	if t.words != nil {
		n, ok := t.words.get(path)
		t.metrics.CacheLookup(wordCacheName, ok)
		if ok {
			return n
		}
	}
	n := t.root
	for _, tok := range tokens {
		if n = n.children[tok]; n == nil {
			break
		}
	}
	if t.words != nil {
		t.words.put(path, n)
	}
	return n
}

// aggregate collects the subtree of n in pre-order until limit items are held.
func aggregate[T comparable](n *Node[T], ha *hasharray.HashArray[T], limit int) error {
	if limit > 0 && ha.Len() >= limit {
		return nil
	}
	if len(n.values) > 0 {
		if limit == 0 || ha.Len()+len(n.values) < limit {
			if err := ha.Add(n.values...); err != nil {
				return err
			}
		} else {
			return ha.Add(n.values[:limit-ha.Len()]...)
		}
	}
	for _, tok := range n.order {
		if limit > 0 && ha.Len() >= limit {
			return nil
		}
		if err := aggregate(n.children[tok], ha, limit); err != nil {
			return err
		}
	}
	return nil
}
