package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/trieserve/internal/logger"
	"github.com/bastiangx/trieserve/pkg/dictionary"
	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, indexField bool) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	opts := suggest.DefaultOptions()
	opts.Logger = logger.Discard()
	if indexField {
		opts.IndexField = hasharray.Field("id")
	}
	trie, err := suggest.New[*dictionary.Document]([]hasharray.KeyField{hasharray.Field("text")}, opts)
	require.NoError(t, err)

	var out bytes.Buffer
	l := logger.NewWithConfig(&out, "", log.InfoLevel, false, false, log.TextFormatter)
	return NewInputHandler(trie, 10, "text", "id", 1, l), &out
}

func TestHandle(t *testing.T) {
	h, _ := newHandler(t, true)

	for _, line := range []string{"+the quick brown fox", "+the quick fox", "+lazy dog"} {
		docs, err := h.Handle(line)
		require.NoError(t, err)
		assert.Nil(t, docs)
	}

	docs, err := h.Handle("qui")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = h.Handle("quick | brown")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "the quick brown fox", (*docs[0])["text"])
	assert.Equal(t, 1, (*docs[0])["id"])

	docs, err = h.Handle("zebra")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	_, err = h.Handle("+  ")
	assert.Error(t, err)
	_, err = h.Handle(" | ")
	assert.Error(t, err)

	_, err = h.Handle(":clear")
	require.NoError(t, err)
	docs, err = h.Handle("qui")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestHandle_MultiPhraseNeedsIndexField(t *testing.T) {
	h, _ := newHandler(t, false)
	_, err := h.Handle("a | b")
	assert.ErrorIs(t, err, apperrors.ErrIndexFieldRequired)
}

func TestStart(t *testing.T) {
	h, out := newHandler(t, true)
	require.NoError(t, h.Start(strings.NewReader("+alpha\n\n:stats\nalp\nzzz")))

	s := out.String()
	assert.Contains(t, s, "Added 'alpha'")
	assert.Contains(t, s, "Found 1 matches for 'alp'")
	assert.Contains(t, s, "No matches found for 'zzz'")
	assert.Contains(t, s, "items")
}
