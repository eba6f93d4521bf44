package suggest

import (
	"slices"
	"strings"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Node is a trie node: token edges in insertion order plus the values ending here.
type Node[T comparable] struct {
	children map[string]*Node[T]
	order    []string
	values   []T
}

func newNode[T comparable]() *Node[T] {
	return &Node[T]{children: make(map[string]*Node[T])}
}

// Child returns the node reached through token, or nil.
func (n *Node[T]) Child(token string) *Node[T] {
	return n.children[token]
}

// Tokens returns the outgoing edge tokens in insertion order.
func (n *Node[T]) Tokens() []string {
	return slices.Clone(n.order)
}

// Values returns the values terminating at n.
func (n *Node[T]) Values() []T {
	return slices.Clone(n.values)
}

// Action names a change announced to subscribers.
type Action string

const (
	ActionAdd     Action = "add"
	ActionClear   Action = "clear"
	ActionDestroy Action = "destroy"
)

// Event is delivered to subscribers. Trie is nil for ActionDestroy.
type Event[T comparable] struct {
	Action Action
	Trie   *Trie[T]
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id uint64
}

type subscriber[T comparable] struct {
	id uint64
	fn func(Event[T])
}

// Trie indexes items by key field prefixes.
type Trie[T comparable] struct {
	root *Node[T]
	// size counts nodes created, items counts indexed items
	size  int
	items int

	keyFields   []hasharray.KeyField
	indexFields []hasharray.KeyField
	opts        Options
	caser       cases.Caser

	phrases *phraseCache[T]
	words   *wordCache[T]

	log       *log.Logger
	metrics   Recorder
	subs      []subscriber[T]
	nextSubID uint64
	destroyed bool
}

// New creates a trie extracting keys from fields. At least one field or an
// Options.IndexField is required to identify matched items.
func New[T comparable](fields []hasharray.KeyField, opts Options) (*Trie[T], error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if !f.Valid() {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid key field %q", f.String())
		}
	}
	indexFields := fields
	if opts.IndexField.Valid() {
		indexFields = []hasharray.KeyField{opts.IndexField}
	}
	if len(indexFields) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, "trie needs key fields or an index field")
	}

	t := &Trie[T]{
		root:        newNode[T](),
		keyFields:   slices.Clone(fields),
		indexFields: slices.Clone(indexFields),
		opts:        opts,
		caser:       cases.Lower(language.Und),
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
	if opts.Cache {
		var err error
		if t.phrases, err = newPhraseCache[T](opts.MaxCacheSize); err != nil {
			return nil, err
		}
		if t.words, err = newWordCache[T](opts.MaxWordCacheSize); err != nil {
			return nil, err
		}
	}
	t.log.Debug("Trie created", "fields", len(fields), "min", opts.Min, "cache", opts.Cache)
	return t, nil
}

func (t *Trie[T]) alive() error {
	if t.destroyed {
		return apperrors.ErrDestroyed
	}
	return nil
}

// Add indexes every item under the values of the trie's key fields.
// Items are checked up front, so a non-object fails the call before anything
// is indexed. Subscribers hear about whatever part of items was applied.
func (t *Trie[T]) Add(items ...T) error {
	if err := t.alive(); err != nil {
		return err
	}
	for i, item := range items {
		if !hasharray.IsObject(item) {
			return apperrors.Newf(apperrors.ErrInvalidArgument, "item %d of type %T is not an object", i, item)
		}
	}
	for i, item := range items {
		if err := t.addItem(item, t.keyFields); err != nil {
			if i > 0 {
				t.added(i)
			}
			return err
		}
	}
	t.added(len(items))
	return nil
}

func (t *Trie[T]) added(n int) {
	t.metrics.ItemsAdded(n)
	t.notify(Event[T]{Action: ActionAdd, Trie: t})
}

// AddWithFields indexes item under fields instead of the trie's key fields.
func (t *Trie[T]) AddWithFields(item T, fields []hasharray.KeyField) error {
	if err := t.alive(); err != nil {
		return err
	}
	for _, f := range fields {
		if !f.Valid() {
			return apperrors.Newf(apperrors.ErrInvalidArgument, "invalid key field %q", f.String())
		}
	}
	if err := t.addItem(item, fields); err != nil {
		return err
	}
	t.added(1)
	return nil
}

func (t *Trie[T]) addItem(item T, fields []hasharray.KeyField) error {
	if !hasharray.IsObject(item) {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "item of type %T is not an object", item)
	}
	for _, f := range fields {
		v, ok, err := hasharray.Lookup(item, f)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s, ok := hasharray.KeyString(v)
		if !ok {
			continue
		}
		for variant := range expand(s, t.opts.ExpandRules, t.opts.FoldDiacritics) {
			t.mapKey(variant, item)
		}
	}
	t.items++
	return nil
}

// Map inserts value under key, splitting key into sub-phrases first.
func (t *Trie[T]) Map(key string, value T) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !hasharray.IsObject(value) {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "value of type %T is not an object", value)
	}
	t.mapKey(key, value)
	return nil
}

func (t *Trie[T]) mapKey(key string, value T) {
	if re := t.opts.SplitOn; re != nil && re.MatchString(key) {
		parts := re.Split(key, -1)
		// a split that only reproduces key (or blanks) would recurse forever
		if !selfSplit(key, parts) {
			for _, p := range parts {
				if !isBlank(p) {
					t.mapKey(p, value)
				}
			}
			if !t.opts.InsertFullUnsplitKey {
				return
			}
		}
	}

	key = t.fold(key)
	tokens := tokenize(t.opts.Tokenizer, key, t.opts.Min)
	if len(tokens) == 0 {
		t.log.Debugf("Key '%s' is shorter than min [%d], value discarded", key, t.opts.Min)
		return
	}
	t.invalidate(key, tokens)
	n := t.root
	for _, tok := range tokens {
		child, ok := n.children[tok]
		if !ok {
			child = newNode[T]()
			n.children[tok] = child
			n.order = append(n.order, tok)
			t.size++
		}
		n = child
	}
	n.values = append(n.values, value)
}

func selfSplit(key string, parts []string) bool {
	for _, p := range parts {
		if p != key && !isBlank(p) {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (t *Trie[T]) fold(s string) string {
	if !t.opts.IgnoreCase {
		return s
	}
	return t.caser.String(s)
}

// invalidate runs before tokens are walked into the tree. Phrase results may all
// change; of the word lookups only cached misses on token prefixes of key can.
func (t *Trie[T]) invalidate(key string, tokens []string) {
	if t.phrases != nil {
		t.phrases.purge()
	}
	if t.words != nil {
		if n := t.words.invalidatePrefixesOf(tokenPath(tokens)); n > 0 {
			t.log.Debugf("Invalidated [%d] cached misses for key '%s'", n, key)
		}
	}
}

// Clear drops every node and item and empties both caches.
func (t *Trie[T]) Clear() error {
	if err := t.alive(); err != nil {
		return err
	}
	t.reset()
	t.notify(Event[T]{Action: ActionClear, Trie: t})
	return nil
}

func (t *Trie[T]) reset() {
	t.root = newNode[T]()
	t.size = 0
	t.items = 0
	if t.phrases != nil {
		t.phrases.purge()
	}
	if t.words != nil {
		t.words.purge()
	}
}

// Destroy announces ActionDestroy, drops all subscribers and state, and makes
// every later call fail with ErrDestroyed.
func (t *Trie[T]) Destroy() error {
	if err := t.alive(); err != nil {
		return err
	}
	t.notify(Event[T]{Action: ActionDestroy})
	t.subs = nil
	t.reset()
	t.root = nil
	t.phrases = nil
	t.words = nil
	t.destroyed = true
	t.log.Debug("Trie destroyed")
	return nil
}

// Root returns the root node.
func (t *Trie[T]) Root() (*Node[T], error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	return t.root, nil
}

// Size is the number of nodes created. It is 0 once the trie is destroyed;
// use Stats to tell a destroyed trie from an empty one.
func (t *Trie[T]) Size() int {
	return t.size
}

// Items is the number of items added through Add, 0 once destroyed.
func (t *Trie[T]) Items() int {
	return t.items
}

// Stats returns node, item and cache counters.
func (t *Trie[T]) Stats() (map[string]int, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	stats := map[string]int{
		"nodes": t.size,
		"items": t.items,
	}
	if t.phrases != nil {
		stats["phraseCacheEntries"] = t.phrases.entries.Len()
		stats["phraseCacheHits"] = t.phrases.hits
		stats["phraseCacheMisses"] = t.phrases.misses
	}
	if t.words != nil {
		stats["wordCacheEntries"] = t.words.len()
		stats["wordCacheHits"] = t.words.hits
		stats["wordCacheMisses"] = t.words.missed
	}
	return stats, nil
}

// Subscribe registers fn for add, clear and destroy events.
func (t *Trie[T]) Subscribe(fn func(Event[T])) (Subscription, error) {
	if err := t.alive(); err != nil {
		return Subscription{}, err
	}
	if fn == nil {
		return Subscription{}, apperrors.New(apperrors.ErrInvalidArgument, "nil subscriber")
	}
	t.nextSubID++
	t.subs = append(t.subs, subscriber[T]{id: t.nextSubID, fn: fn})
	return Subscription{id: t.nextSubID}, nil
}

// Unsubscribe removes a subscription and reports whether it was registered.
func (t *Trie[T]) Unsubscribe(sub Subscription) bool {
	i := slices.IndexFunc(t.subs, func(s subscriber[T]) bool { return s.id == sub.id })
	if i < 0 {
		return false
	}
	t.subs = slices.Delete(t.subs, i, i+1)
	return true
}

func (t *Trie[T]) notify(ev Event[T]) {
	// subscribers may unsubscribe while being notified
	for _, s := range slices.Clone(t.subs) {
		s.fn(ev)
	}
}
