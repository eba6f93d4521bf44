package suggest

import (
	"github.com/bastiangx/trieserve/pkg/hasharray"
)

// ResetContext is handed to Reducer.Reset once per SearchWith call.
type ResetContext[T comparable] struct {
	KeyFields []hasharray.KeyField
	List      []T
	Options   Options
	Phrases   []string
}

// ReduceContext is handed to Reducer.Reduce once per phrase.
type ReduceContext[T comparable] struct {
	Phrase           string
	IgnoreCasePhrase string
	Index            int
	Matches          []T
	Words            []string
}

// Reducer combines the matches of the phrases of one query.
type Reducer[T comparable] interface {
	Reset(ctx ResetContext[T])
	Reduce(ctx ReduceContext[T]) error
	// Matches is the combined result, nil before the first Reset.
	Matches() []T
}

// UnionReducer keeps the items present in the matches of every phrase.
// Items are identified by their index field value.
type UnionReducer[T comparable] struct {
	keyFields []hasharray.KeyField
	acc       []T
	started   bool
}

func NewUnionReducer[T comparable]() *UnionReducer[T] {
	return &UnionReducer[T]{}
}

func (r *UnionReducer[T]) Reset(ctx ResetContext[T]) {
	r.keyFields = ctx.KeyFields
	r.acc = nil
	r.started = false
}

// Reduce walks the accumulator and the new matches side by side, counting each
// index value; an item survives when its count reaches 2.
func (r *UnionReducer[T]) Reduce(ctx ReduceContext[T]) error {
	if !r.started {
		r.acc = ctx.Matches
		r.started = true
		return nil
	}

	counts := make(map[string]int, len(r.acc)+len(ctx.Matches))
	next := make([]T, 0, min(len(r.acc), len(ctx.Matches)))
	visit := func(item T) error {
		key, ok, err := r.indexOf(item)
		if err != nil || !ok {
			return err
		}
		counts[key]++
		if counts[key] == 2 {
			next = append(next, item)
		}
		return nil
	}

	for i := 0; i < max(len(r.acc), len(ctx.Matches)); i++ {
		if i < len(r.acc) {
			if err := visit(r.acc[i]); err != nil {
				return err
			}
		}
		if i < len(ctx.Matches) {
			if err := visit(ctx.Matches[i]); err != nil {
				return err
			}
		}
	}
	r.acc = next
	return nil
}

func (r *UnionReducer[T]) indexOf(item T) (string, bool, error) {
	for _, kf := range r.keyFields {
		v, ok, err := hasharray.Lookup(item, kf)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		if s, ok := hasharray.KeyString(v); ok {
			return s, true, nil
		}
	}
	return "", false, nil
}

func (r *UnionReducer[T]) Matches() []T {
	return r.acc
}
