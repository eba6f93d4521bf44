/*
Package suggest is the core, building the token trie for inserted keys and answering prefix
searches over it.

Items are indexed by one or more key fields. Each field value is expanded through the
internationalization table, split into sub-phrases, case folded and tokenized before it is
walked into the trie. A search splits every phrase into words, resolves each word to a node,
collects the node's subtree and intersects the per-word sets through a hasharray.

	t, _ := suggest.New[*Doc]([]hasharray.KeyField{hasharray.Field("name")}, suggest.DefaultOptions())
	_ = t.Add(&Doc{Name: "the quick brown fox"})
	res, _ := t.Search("qui bro")

Multi-phrase queries union their phrase results by default. A Reducer replaces that step;
UnionReducer keeps only the items found by every phrase.

A Trie is not safe for concurrent use. Guard it externally when shared.
*/
package suggest

// ISearcher is the surface the server and CLI depend on.
type ISearcher[T comparable] interface {
	// Add indexes items by the configured key fields
	Add(items ...T) error

	// Map inserts value under key directly
	Map(key string, value T) error

	// Search returns the items matching a single phrase
	Search(phrase string) ([]T, error)

	// SearchWith runs a multi-phrase query
	SearchWith(phrases []string, opts SearchOptions[T]) ([]T, error)

	// Clear drops every indexed item
	Clear() error

	// Destroy makes the searcher permanently unusable
	Destroy() error

	// Stats returns node, item and cache counters
	Stats() (map[string]int, error)

	// Subscribe registers fn for add, clear and destroy notifications
	Subscribe(fn func(Event[T])) (Subscription, error)
}

var _ ISearcher[*struct{}] = (*Trie[*struct{}])(nil)
