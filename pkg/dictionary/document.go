package dictionary

import (
	"strconv"

	"github.com/bastiangx/trieserve/pkg/hasharray"
)

// Document is the item type served by trieserve: a decoded JSON / msgpack object.
// Use it by pointer so items keep their identity inside the trie.
type Document map[string]any

// NewDocument returns a document holding text under field.
func NewDocument(field, text string) *Document {
	return &Document{field: text}
}

// Field implements hasharray.Fielder.
func (d *Document) Field(name string) (any, bool) {
	if d == nil || *d == nil {
		return nil, false
	}
	v, ok := (*d)[name]
	return v, ok
}

// Get resolves a nested field.
func (d *Document) Get(kf hasharray.KeyField) (any, bool) {
	v, ok, err := hasharray.Lookup(d, kf)
	return v, ok && err == nil
}

// AssignIDs sets field to a sequential id on every document that has no
// usable value there. Ids start at next, or above the largest integer id
// already present in docs, whichever is higher. It returns the next unused id.
func AssignIDs(docs []*Document, field string, next int) int {
	var missing []*Document
	for _, d := range docs {
		if d == nil {
			continue
		}
		if *d == nil {
			*d = Document{}
		}
		s, ok := hasharray.KeyString((*d)[field])
		if !ok {
			missing = append(missing, d)
			continue
		}
		// ids are compared by their string form, so "7" and 7 collide
		if n, err := strconv.Atoi(s); err == nil && n >= next {
			next = n + 1
		}
	}
	for _, d := range missing {
		(*d)[field] = next
		next++
	}
	return next
}
