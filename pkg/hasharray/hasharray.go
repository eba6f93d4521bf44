/*
Package hasharray implements an insertion-ordered collection indexed by one or more key fields.

Items are bucketed by the string form of each of their key values, so lookups, collision
checks and removals by key are O(1) on average. Two collections sharing compatible keys
support set algebra (Intersection, Complement), which the suggest package uses to combine
per-word match sets.

	ha, _ := hasharray.New[*Movie]([]hasharray.KeyField{hasharray.Field("title")})
	_ = ha.Add(&Movie{Title: "Alien"})
	ha.Has("Alien") // true

Items are held by reference: the same item is never stored twice, but two distinct items
with the same key value share a bucket.
*/
package hasharray

import (
	"slices"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
)

// Wildcard passed to GetAll selects every item.
const Wildcard = "*"

// CloneMode selects what Clone copies.
type CloneMode int

const (
	// CloneEmpty copies configuration only.
	CloneEmpty CloneMode = iota
	// CloneItems also adds every item (by reference).
	CloneItems
)

// Option configures a HashArray.
type Option func(*config)

type config struct {
	ignoreDuplicates bool
}

// WithIgnoreDuplicates drops items whose key collides with an already indexed item.
func WithIgnoreDuplicates() Option {
	return func(c *config) {
		c.ignoreDuplicates = true
	}
}

// HashArray is the multi-key indexed collection.
type HashArray[T comparable] struct {
	keyFields        []KeyField
	ignoreDuplicates bool

	// slots keeps insertion order; removed items leave dead slots until compact.
	slots   []slot[T]
	head    int
	dead    int
	members map[T]*member
	buckets map[string][]T
}

type slot[T comparable] struct {
	item T
	live bool
}

// member records where an item is stored, so removal never has to search.
type member struct {
	keys []string
	pos  int
}

// New creates an empty collection keyed by keys.
func New[T comparable](keys []KeyField, opts ...Option) (*HashArray[T], error) {
	if len(keys) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, "hash array needs at least one key field")
	}
	for _, k := range keys {
		if !k.Valid() {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid key field %q", k.String())
		}
	}
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &HashArray[T]{
		keyFields:        slices.Clone(keys),
		ignoreDuplicates: c.ignoreDuplicates,
		members:          make(map[T]*member),
		buckets:          make(map[string][]T),
	}, nil
}

// KeyFields returns the configured key descriptors.
func (h *HashArray[T]) KeyFields() []KeyField {
	return slices.Clone(h.keyFields)
}

// keysOf returns the distinct bucket keys of item, in key-field order.
func (h *HashArray[T]) keysOf(item T) ([]string, error) {
	keys := make([]string, 0, len(h.keyFields))
	for _, kf := range h.keyFields {
		v, ok, err := Lookup(item, kf)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if s, ok := KeyString(v); ok && !slices.Contains(keys, s) {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

// Add indexes items under each of their non-empty key values.
func (h *HashArray[T]) Add(items ...T) error {
	for _, item := range items {
		keys, err := h.keysOf(item)
		if err != nil {
			return err
		}
		if h.ignoreDuplicates && h.collidesWithOther(keys, item) {
			continue
		}
		m, ok := h.members[item]
		if !ok {
			m = &member{pos: len(h.slots)}
			h.members[item] = m
			h.slots = append(h.slots, slot[T]{item: item, live: true})
		}
		for _, k := range keys {
			if slices.Contains(m.keys, k) {
				continue
			}
			m.keys = append(m.keys, k)
			h.buckets[k] = append(h.buckets[k], item)
		}
	}
	return nil
}

func (h *HashArray[T]) collidesWithOther(keys []string, item T) bool {
	for _, k := range keys {
		for _, existing := range h.buckets[k] {
			if existing != item {
				return true
			}
		}
	}
	return false
}

// Get returns the first item stored under key.
func (h *HashArray[T]) Get(key string) (T, bool) {
	bucket := h.buckets[key]
	if len(bucket) == 0 {
		var zero T
		return zero, false
	}
	return bucket[0], true
}

// GetAsArray returns every item stored under key; empty if key is unknown.
func (h *HashArray[T]) GetAsArray(key string) []T {
	return append([]T{}, h.buckets[key]...)
}

// GetAll returns the union of the buckets of keys in first-seen order.
func (h *HashArray[T]) GetAll(keys []string) []T {
	if slices.Contains(keys, Wildcard) {
		return h.All()
	}
	seen := make(map[T]struct{})
	out := []T{}
	for _, k := range keys {
		for _, item := range h.buckets[k] {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Has reports whether a bucket exists for key.
func (h *HashArray[T]) Has(key string) bool {
	_, ok := h.buckets[key]
	return ok
}

// Contains reports whether item itself is stored.
func (h *HashArray[T]) Contains(item T) bool {
	_, ok := h.members[item]
	return ok
}

// Collides reports whether any key value of item matches an existing bucket.
// Items that are not objects never collide.
func (h *HashArray[T]) Collides(item T) bool {
	keys, err := h.keysOf(item)
	if err != nil {
		return false
	}
	for _, k := range keys {
		if h.Has(k) {
			return true
		}
	}
	return false
}

// Remove deletes items from their buckets and from the ordered list in O(1)
// amortized time per item, plus the size of the buckets involved.
// Removing an item that was never added is an ErrInvariantViolation.
func (h *HashArray[T]) Remove(items ...T) error {
	for _, item := range items {
		if _, ok := h.members[item]; !ok {
			return apperrors.Newf(apperrors.ErrInvariantViolation, "item %v is not in the hash array", item)
		}
		h.unlink(item)
	}
	return nil
}

// unlink drops item from the buckets it was stored under at Add time,
// which stays correct when its key values were mutated since.
func (h *HashArray[T]) unlink(item T) {
	m, ok := h.members[item]
	if !ok {
		return
	}
	for _, k := range m.keys {
		bucket := h.buckets[k]
		i := slices.Index(bucket, item)
		if i < 0 {
			continue
		}
		bucket = slices.Delete(bucket, i, i+1)
		if len(bucket) == 0 {
			delete(h.buckets, k)
		} else {
			h.buckets[k] = bucket
		}
	}
	delete(h.members, item)

	h.slots[m.pos] = slot[T]{}
	h.dead++
	for h.head < len(h.slots) && !h.slots[h.head].live {
		h.head++
	}
	for n := len(h.slots); n > 0 && !h.slots[n-1].live; n-- {
		h.slots = h.slots[:n-1]
		h.dead--
	}
	if h.head > len(h.slots) {
		h.head = len(h.slots)
	}
	if h.dead > 32 && h.dead*2 > len(h.slots) {
		h.compact()
	}
}

func (h *HashArray[T]) compact() {
	live := make([]slot[T], 0, len(h.members))
	for _, s := range h.slots[h.head:] {
		if s.live {
			h.members[s.item].pos = len(live)
			live = append(live, s)
		}
	}
	h.slots, h.head, h.dead = live, 0, 0
}

// RemoveByKey removes every item stored under each key. Unknown keys are ignored.
func (h *HashArray[T]) RemoveByKey(keys ...string) {
	for _, k := range keys {
		for _, item := range slices.Clone(h.buckets[k]) {
			h.unlink(item)
		}
	}
}

// RemoveFirst removes and returns the oldest item.
func (h *HashArray[T]) RemoveFirst() (T, bool) {
	var zero T
	if len(h.members) == 0 {
		return zero, false
	}
	item := h.slots[h.head].item
	h.unlink(item)
	return item, true
}

// RemoveLast removes and returns the newest item.
func (h *HashArray[T]) RemoveLast() (T, bool) {
	var zero T
	if len(h.members) == 0 {
		return zero, false
	}
	item := h.slots[len(h.slots)-1].item
	h.unlink(item)
	return item, true
}

// Intersection returns the items of both collections that collide with both of them.
func (h *HashArray[T]) Intersection(other *HashArray[T]) *HashArray[T] {
	ret := h.Clone(CloneEmpty)
	if other == nil {
		return ret
	}
	for _, item := range h.union(other) {
		if h.Collides(item) && other.Collides(item) {
			ret.addUnchecked(item)
		}
	}
	return ret
}

// Complement returns the items of h that do not collide with other.
func (h *HashArray[T]) Complement(other *HashArray[T]) *HashArray[T] {
	ret := h.Clone(CloneEmpty)
	for _, item := range h.All() {
		if other == nil || !other.Collides(item) {
			ret.addUnchecked(item)
		}
	}
	return ret
}

func (h *HashArray[T]) union(other *HashArray[T]) []T {
	out := h.All()
	for _, item := range other.All() {
		if _, ok := h.members[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// addUnchecked adds items that already passed Lookup validation in a sibling collection.
func (h *HashArray[T]) addUnchecked(item T) {
	_ = h.Add(item)
}

// Clone returns a collection with the same keys and, for CloneItems, the same items.
func (h *HashArray[T]) Clone(mode CloneMode) *HashArray[T] {
	c := &HashArray[T]{
		keyFields:        slices.Clone(h.keyFields),
		ignoreDuplicates: h.ignoreDuplicates,
		members:          make(map[T]*member),
		buckets:          make(map[string][]T),
	}
	if mode == CloneItems {
		h.ForEach(func(item T) {
			c.members[item] = &member{keys: slices.Clone(h.members[item].keys), pos: len(c.slots)}
			c.slots = append(c.slots, slot[T]{item: item, live: true})
		})
		for k, bucket := range h.buckets {
			c.buckets[k] = slices.Clone(bucket)
		}
	}
	return c
}

// All returns a copy of the ordered item list.
func (h *HashArray[T]) All() []T {
	out := make([]T, 0, len(h.members))
	h.ForEach(func(item T) {
		out = append(out, item)
	})
	return out
}

// Len is the number of distinct items.
func (h *HashArray[T]) Len() int {
	return len(h.members)
}

// KeyCount is the number of buckets.
func (h *HashArray[T]) KeyCount() int {
	return len(h.buckets)
}

// Keys returns the bucket keys in no particular order.
func (h *HashArray[T]) Keys() []string {
	keys := make([]string, 0, len(h.buckets))
	for k := range h.buckets {
		keys = append(keys, k)
	}
	return keys
}

// ForEach calls fn for every item in insertion order.
func (h *HashArray[T]) ForEach(fn func(T)) {
	for _, s := range h.slots[h.head:] {
		if s.live {
			fn(s.item)
		}
	}
}

// Filter returns a collection holding the items for which keep returns true.
func (h *HashArray[T]) Filter(keep func(T) bool) *HashArray[T] {
	ret := h.Clone(CloneEmpty)
	for _, item := range h.All() {
		if keep(item) {
			ret.addUnchecked(item)
		}
	}
	return ret
}
