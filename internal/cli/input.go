// Package cli handles cmd line input for debugging a trie interactively.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/trieserve/pkg/dictionary"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Searcher is the index the REPL queries.
type Searcher = suggest.ISearcher[*dictionary.Document]

// InputHandler reads lines and answers them from a Searcher.
//
// A line is one phrase. Phrases separated by | are all required to match.
// A line starting with + adds a document holding the rest of the line.
// :stats and :clear inspect and reset the index.
type InputHandler struct {
	searcher     Searcher
	suggestLimit int
	textField    string
	idField      string
	nextID       int
	requestCount int
	out          *log.Logger
}

// NewInputHandler creates a handler. Added documents store their text under
// textField and receive sequential ids in idField, starting at nextID.
func NewInputHandler(searcher Searcher, limit int, textField, idField string, nextID int, out *log.Logger) *InputHandler {
	return &InputHandler{
		searcher:     searcher,
		suggestLimit: limit,
		textField:    textField,
		idField:      idField,
		nextID:       nextID,
		out:          out,
	}
}

// Start runs the loop until in is exhausted.
func (h *InputHandler) Start(in io.Reader) error {
	h.out.Print("trieserve REPL")
	h.out.Print("type a phrase and press Enter, a|b to require both, +text to add (Ctrl+D to exit):")
	reader := bufio.NewReader(in)

	for {
		h.out.Print("> ")
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	start := time.Now()
	docs, err := h.Handle(line)
	elapsed := time.Since(start)
	if err != nil {
		h.out.Errorf("%v", err)
		return
	}
	if docs == nil {
		return
	}
	h.out.Debugf("Took [ %v ] for '%s'", elapsed, line)

	if len(docs) == 0 {
		h.out.Warnf("No matches found for '%s'", line)
		return
	}
	h.out.Printf("Found %d matches for '%s':", len(docs), line)
	for i, d := range docs {
		text, _ := d.Field(h.textField)
		id, _ := d.Field(h.idField)
		h.out.Printf("%2d. %-40s %s", i+1, matchStyle.Render(fmt.Sprint(text)), dimStyle.Render(fmt.Sprintf("(%s: %v)", h.idField, id)))
	}
}

// Handle executes one input line. Searches return their matches; commands
// and additions return nil.
func (h *InputHandler) Handle(line string) ([]*dictionary.Document, error) {
	switch {
	case strings.HasPrefix(line, "+"):
		text := strings.TrimSpace(line[1:])
		if text == "" {
			return nil, fmt.Errorf("nothing to add")
		}
		doc := dictionary.NewDocument(h.textField, text)
		h.nextID = dictionary.AssignIDs([]*dictionary.Document{doc}, h.idField, h.nextID)
		if err := h.searcher.Add(doc); err != nil {
			return nil, fmt.Errorf("adding '%s': %w", text, err)
		}
		h.out.Infof("Added '%s'", text)
		return nil, nil
	case line == ":clear":
		if err := h.searcher.Clear(); err != nil {
			return nil, err
		}
		h.out.Info("Index cleared")
		return nil, nil
	case line == ":stats":
		stats, err := h.searcher.Stats()
		if err != nil {
			return nil, err
		}
		for k, v := range stats {
			h.out.Printf("%-20s %d", k, v)
		}
		return nil, nil
	}

	var phrases []string
	for _, p := range strings.Split(line, "|") {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("no phrase in '%s'", line)
	}

	opts := suggest.SearchOptions[*dictionary.Document]{Limit: h.suggestLimit}
	if len(phrases) > 1 {
		opts.Reducer = suggest.NewUnionReducer[*dictionary.Document]()
	}
	docs, err := h.searcher.SearchWith(phrases, opts)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*dictionary.Document{}
	}
	return docs, nil
}
