package hasharray_test

import (
	"testing"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/stretchr/testify/require"
)

type movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	Meta  struct {
		Studio string `json:"studio"`
	} `json:"meta"`
}

func newMovies(t *testing.T, opts ...hasharray.Option) *hasharray.HashArray[*movie] {
	t.Helper()
	ha, err := hasharray.New[*movie]([]hasharray.KeyField{
		hasharray.Field("title"),
		hasharray.Path("meta", "studio"),
	}, opts...)
	require.NoError(t, err)
	return ha
}

func TestNew_InvalidKeys(t *testing.T) {
	_, err := hasharray.New[*movie](nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = hasharray.New[*movie]([]hasharray.KeyField{hasharray.Path()})
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestParseKeyField(t *testing.T) {
	kf, err := hasharray.ParseKeyField("name")
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, kf.Segments())

	kf, err = hasharray.ParseKeyField([]any{"meta", "studio"})
	require.NoError(t, err)
	require.Equal(t, "meta.studio", kf.String())

	for _, bad := range []any{42, []any{"a", 1}, "", nil} {
		_, err := hasharray.ParseKeyField(bad)
		require.ErrorIs(t, err, apperrors.ErrInvalidArgument, "descriptor %v", bad)
	}
}

func TestLookup(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": "deep"}}
	v, ok, err := hasharray.Lookup(doc, hasharray.Path("a", "b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "deep", v)

	_, ok, err = hasharray.Lookup(doc, hasharray.Path("a", "missing"))
	require.NoError(t, err)
	require.False(t, ok)

	m := &movie{Title: "Alien"}
	m.Meta.Studio = "Fox"
	v, ok, err = hasharray.Lookup(m, hasharray.Path("meta", "studio"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Fox", v)

	_, _, err = hasharray.Lookup(42, hasharray.Field("a"))
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestAdd_NonObject(t *testing.T) {
	ha, err := hasharray.New[int]([]hasharray.KeyField{hasharray.Field("id")})
	require.NoError(t, err)
	require.ErrorIs(t, ha.Add(7), apperrors.ErrInvalidArgument)
}

func TestAddGetRemove(t *testing.T) {
	ha := newMovies(t)
	alien := &movie{Title: "Alien"}
	alien.Meta.Studio = "Fox"
	aliens := &movie{Title: "Aliens"}
	aliens.Meta.Studio = "Fox"

	require.NoError(t, ha.Add(alien, aliens, alien))
	require.Equal(t, 2, ha.Len())
	require.Equal(t, []*movie{alien, aliens}, ha.All())
	require.Equal(t, []*movie{alien, aliens}, ha.GetAsArray("Fox"))

	got, ok := ha.Get("Alien")
	require.True(t, ok)
	require.Same(t, alien, got)
	require.Empty(t, ha.GetAsArray("Predator"))

	require.Equal(t, []*movie{alien, aliens}, ha.GetAll([]string{"Alien", "Fox"}))
	require.Equal(t, ha.All(), ha.GetAll([]string{hasharray.Wildcard}))

	require.NoError(t, ha.Remove(alien))
	require.False(t, ha.Has("Alien"))
	require.Equal(t, []*movie{aliens}, ha.GetAsArray("Fox"))

	err := ha.Remove(alien)
	require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
}

func TestIgnoreDuplicates(t *testing.T) {
	ha := newMovies(t, hasharray.WithIgnoreDuplicates())
	a := &movie{Title: "Heat"}
	b := &movie{Title: "Heat"}
	require.NoError(t, ha.Add(a, b))
	require.Equal(t, []*movie{a}, ha.All())

	plain := newMovies(t)
	require.NoError(t, plain.Add(a, b))
	require.Equal(t, []*movie{a, b}, plain.GetAsArray("Heat"))
}

func TestRemoveByKey(t *testing.T) {
	ha := newMovies(t)
	a := &movie{Title: "Heat"}
	a.Meta.Studio = "WB"
	b := &movie{Title: "Ronin"}
	b.Meta.Studio = "MGM"
	require.NoError(t, ha.Add(a, b))

	ha.RemoveByKey("WB", "unknown")
	require.False(t, ha.Has("WB"))
	require.False(t, ha.Has("Heat"))
	require.Equal(t, 1, ha.Len())
	require.Equal(t, 2, ha.KeyCount())
}

func TestRemoveFirstLast(t *testing.T) {
	ha := newMovies(t)
	a, b, c := &movie{Title: "a"}, &movie{Title: "b"}, &movie{Title: "c"}
	require.NoError(t, ha.Add(a, b, c))

	first, ok := ha.RemoveFirst()
	require.True(t, ok)
	require.Same(t, a, first)

	last, ok := ha.RemoveLast()
	require.True(t, ok)
	require.Same(t, c, last)
	require.Equal(t, []*movie{b}, ha.All())

	_, _ = ha.RemoveFirst()
	_, ok = ha.RemoveLast()
	require.False(t, ok)
	require.Zero(t, ha.KeyCount())
}

func TestIntersectionComplement(t *testing.T) {
	a, b, c := &movie{Title: "a"}, &movie{Title: "b"}, &movie{Title: "c"}
	left := newMovies(t)
	right := newMovies(t)
	require.NoError(t, left.Add(a, b))
	require.NoError(t, right.Add(b, c))

	inter := left.Intersection(right)
	require.Equal(t, []*movie{b}, inter.All())
	inter.ForEach(func(m *movie) {
		require.True(t, left.Collides(m))
		require.True(t, right.Collides(m))
	})

	comp := left.Complement(right)
	require.Equal(t, []*movie{a}, comp.All())
	require.False(t, right.Collides(a))
}

func TestCollidesPartial(t *testing.T) {
	ha := newMovies(t)
	require.NoError(t, ha.Add(&movie{Title: "Heat"}))
	require.True(t, ha.Collides(&movie{Title: "Heat"}))
	require.False(t, ha.Collides(&movie{Title: "Cold"}))
}

func TestCloneAndFilter(t *testing.T) {
	ha := newMovies(t)
	a := &movie{Title: "a", Year: 1979}
	b := &movie{Title: "b", Year: 1986}
	require.NoError(t, ha.Add(a, b))

	empty := ha.Clone(hasharray.CloneEmpty)
	require.Zero(t, empty.Len())
	require.Len(t, empty.KeyFields(), 2)

	full := ha.Clone(hasharray.CloneItems)
	require.NoError(t, full.Remove(a))
	require.Equal(t, 2, ha.Len(), "clone must not share state")

	old := ha.Filter(func(m *movie) bool { return m.Year < 1980 })
	require.Equal(t, []*movie{a}, old.All())
}

func TestAccountingStaysConsistent(t *testing.T) {
	ha := newMovies(t)
	items := make([]*movie, 0, 20)
	for i := 0; i < 20; i++ {
		m := &movie{Title: string(rune('a' + i))}
		m.Meta.Studio = []string{"x", "y", "z"}[i%3]
		items = append(items, m)
	}
	require.NoError(t, ha.Add(items...))
	require.NoError(t, ha.Remove(items[3], items[7]))
	ha.RemoveByKey("z")
	_, _ = ha.RemoveFirst()

	distinct := map[*movie]struct{}{}
	for _, k := range ha.Keys() {
		for _, m := range ha.GetAsArray(k) {
			distinct[m] = struct{}{}
		}
	}
	require.Equal(t, ha.Len(), len(distinct))
}

func TestRemove_AfterKeyMutation(t *testing.T) {
	ha := newMovies(t)
	m := &movie{Title: "Alien"}
	require.NoError(t, ha.Add(m))

	m.Title = "Aliens"
	require.NoError(t, ha.Remove(m))
	require.False(t, ha.Has("Alien"))
	require.Zero(t, ha.KeyCount())
	require.ErrorIs(t, ha.Remove(m), apperrors.ErrInvariantViolation)
}

func TestRemoveFirst_DrainsInOrder(t *testing.T) {
	ha := newMovies(t)
	var items []*movie
	for i := 0; i < 200; i++ {
		m := &movie{Title: string(rune(0x4e00 + i))}
		items = append(items, m)
	}
	require.NoError(t, ha.Add(items[:100]...))

	// removals in the middle and at the front leave dead slots behind
	for i := 10; i < 60; i += 2 {
		require.NoError(t, ha.Remove(items[i]))
	}
	require.NoError(t, ha.Add(items[100:]...))

	var expected []*movie
	for i, m := range items {
		if i < 10 || i >= 60 || i%2 == 1 {
			expected = append(expected, m)
		}
	}
	require.Equal(t, expected, ha.All())
	require.Equal(t, len(expected), ha.Len())

	for _, m := range expected {
		got, ok := ha.RemoveFirst()
		require.True(t, ok)
		require.Same(t, m, got)
	}
	_, ok := ha.RemoveFirst()
	require.False(t, ok)
	require.Empty(t, ha.All())

	require.NoError(t, ha.Add(items[0]))
	last, ok := ha.RemoveLast()
	require.True(t, ok)
	require.Same(t, items[0], last)
}
