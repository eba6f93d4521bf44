package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/bastiangx/trieserve/internal/logger"
	"github.com/bastiangx/trieserve/pkg/config"
	"github.com/bastiangx/trieserve/pkg/dictionary"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// reply decodes any response shape.
type reply struct {
	ID      string           `msgpack:"id"`
	Status  string           `msgpack:"status"`
	Added   int              `msgpack:"added"`
	Stats   map[string]int   `msgpack:"stats"`
	Results []map[string]any `msgpack:"r"`
	C       int              `msgpack:"c"`
	E       string           `msgpack:"e"`
}

type recorder struct {
	calls map[string]int
}

func (r *recorder) Request(action string, err error) {
	if err != nil {
		action += ":error"
	}
	r.calls[action]++
}

func newTrie(t *testing.T) *suggest.Trie[*dictionary.Document] {
	t.Helper()
	opts := suggest.DefaultOptions()
	opts.Logger = logger.Discard()
	opts.IndexField = hasharray.Field("id")
	trie, err := suggest.New[*dictionary.Document]([]hasharray.KeyField{hasharray.Field("text")}, opts)
	require.NoError(t, err)
	return trie
}

// run encodes msgs, serves them and returns the decoded replies after the ready line.
func run(t *testing.T, searcher Searcher, cfg config.ServerConfig, msgs ...any) ([]reply, *recorder) {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}

	rec := &recorder{calls: map[string]int{}}
	srv := NewServer(&in, &out, searcher, cfg,
		WithLogger(logger.Discard()), WithMetrics(rec), WithIDField("id", 1))
	require.NoError(t, srv.Start(context.Background()))

	dec := msgpack.NewDecoder(&out)
	var ready reply
	require.NoError(t, dec.Decode(&ready))
	require.Equal(t, "ready", ready.Status)

	replies := make([]reply, 0, len(msgs))
	for range msgs {
		var r reply
		require.NoError(t, dec.Decode(&r))
		replies = append(replies, r)
	}
	return replies, rec
}

func texts(r reply) []string {
	out := make([]string, 0, len(r.Results))
	for _, doc := range r.Results {
		out = append(out, doc["text"].(string))
	}
	return out
}

func TestServer_Session(t *testing.T) {
	cfg := config.DefaultConfig().Server
	replies, rec := run(t, newTrie(t), cfg,
		Request{ID: "a1", Action: ActionAdd, Items: []map[string]any{
			{"text": "the quick brown fox"},
			{"text": "the quick fox"},
			{"text": "lazy dog"},
		}},
		Request{ID: "s1", Phrases: []string{"qui"}},
		Request{ID: "s2", Action: ActionSearch, Phrases: []string{"quick", "brown"}, And: true},
		Request{ID: "s3", Phrases: []string{"the"}, Limit: 1},
		Request{ID: "s4", Phrases: []string{"lazy", "brown"}},
		Request{ID: "st", Action: ActionStats},
		Request{ID: "c1", Action: ActionClear},
		Request{ID: "s5", Phrases: []string{"qui"}},
		Request{ID: "h1", Action: ActionHealth},
	)

	assert.Equal(t, "a1", replies[0].ID)
	assert.Equal(t, 3, replies[0].Added)

	assert.Equal(t, "s1", replies[1].ID)
	assert.Equal(t, 2, replies[1].C)
	assert.ElementsMatch(t, []string{"the quick brown fox", "the quick fox"}, texts(replies[1]))

	assert.Equal(t, []string{"the quick brown fox"}, texts(replies[2]))
	assert.Equal(t, 1, replies[3].C)
	assert.ElementsMatch(t, []string{"lazy dog", "the quick brown fox"}, texts(replies[4]))

	assert.Equal(t, 3, replies[5].Stats["items"])
	assert.Equal(t, "ok", replies[6].Status)
	assert.Zero(t, replies[7].C)
	assert.Equal(t, "ok", replies[8].Status)

	assert.Equal(t, 5, rec.calls[ActionSearch])
	assert.Equal(t, 1, rec.calls[ActionAdd])
}

func TestServer_AssignsIDs(t *testing.T) {
	trie := newTrie(t)
	replies, _ := run(t, trie, config.DefaultConfig().Server,
		Request{ID: "a1", Action: ActionAdd, Items: []map[string]any{{"text": "alpha"}, {"text": "alps", "id": 99}}},
		Request{ID: "s1", Phrases: []string{"alp"}},
	)
	require.Len(t, replies[1].Results, 2)

	ids := map[string]any{}
	for _, doc := range replies[1].Results {
		ids[doc["text"].(string)] = doc["id"]
	}
	// generated ids never reuse an explicit one from the same batch
	assert.EqualValues(t, 100, ids["alpha"])
	assert.EqualValues(t, 99, ids["alps"])
}

func TestServer_Errors(t *testing.T) {
	cfg := config.ServerConfig{MaxLimit: 10, MaxPhrases: 2}
	trie := newTrie(t)
	replies, rec := run(t, trie, cfg,
		Request{ID: "e1", Phrases: []string{"a"}, Limit: -1},
		Request{ID: "e2", Action: "explode"},
		Request{ID: "e3", Phrases: []string{"a", "b", "c"}},
		Request{ID: "e4", Action: ActionSearch},
		Request{ID: "e5", Action: ActionAdd},
		"not a request",
	)

	for i, id := range []string{"e1", "e2", "e3", "e4", "e5", ""} {
		assert.Equal(t, id, replies[i].ID)
		assert.Equal(t, 400, replies[i].C, "reply %d", i)
		assert.NotEmpty(t, replies[i].E)
	}
	assert.Equal(t, 1, rec.calls["explode:error"])
}

func TestServer_LimitCapped(t *testing.T) {
	trie := newTrie(t)
	items := make([]map[string]any, 0, 5)
	for _, w := range []string{"aa", "ab", "ac", "ad", "ae"} {
		items = append(items, map[string]any{"text": w})
	}
	replies, _ := run(t, trie, config.ServerConfig{MaxLimit: 3},
		Request{ID: "a", Action: ActionAdd, Items: items},
		Request{ID: "s1", Phrases: []string{"a"}},
		Request{ID: "s2", Phrases: []string{"a"}, Limit: 50},
		Request{ID: "s3", Phrases: []string{"a"}, Limit: 2},
	)
	assert.Equal(t, 3, replies[1].C)
	assert.Equal(t, 3, replies[2].C)
	assert.Equal(t, 2, replies[3].C)
}

func TestServer_Destroyed(t *testing.T) {
	trie := newTrie(t)
	require.NoError(t, trie.Destroy())
	replies, _ := run(t, trie, config.DefaultConfig().Server,
		Request{ID: "s1", Phrases: []string{"a"}},
		Request{ID: "st", Action: ActionStats},
	)
	assert.Equal(t, 410, replies[0].C)
	assert.Equal(t, 410, replies[1].C)
}

func TestServer_StopsOnCancelledContext(t *testing.T) {
	var in, out bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&in).Encode(Request{ID: "h", Action: ActionHealth}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := NewServer(&in, &out, newTrie(t), config.DefaultConfig().Server, WithLogger(logger.Discard()))
	require.NoError(t, srv.Start(ctx))

	var ready reply
	dec := msgpack.NewDecoder(&out)
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Zero(t, out.Len(), "no request served after cancel")
}
