/*
Package server implements msgpack IPC for trie searches.

The server reads a stream of msgpack maps from stdin and writes one msgpack response per
request to stdout. Every request carries an id that is echoed back, plus an action. A request
without an action but with phrases is a search, so the shortest query is:

	{"id": "req_001", "p": ["qui bro"], "l": 24}

The server responds with the matched documents, their count and the time taken in microseconds:

	{"id": "req_001", "r": [{"id": 1, "text": "the quick brown fox"}], "c": 1, "t": 145}

Several phrases are unioned. With "and" set they are reduced so that only documents found by
every phrase are returned:

	{"id": "req_002", "action": "search", "p": ["quick", "fox"], "and": true}

Index management:

	{"id": "add_001", "action": "add", "items": [{"text": "lazy dog"}]}
	{"id": "clr_001", "action": "clear"}
	{"id": "st_001", "action": "stats"}
	{"id": "hc_001", "action": "health"}

Failures are answered with an ErrorResponse whose code follows HTTP conventions: 400 for
invalid arguments, 409 for invariant violations, 410 once the index is destroyed, 500 otherwise.
*/
package server

// Request is the union of all request shapes.
type Request struct {
	ID      string           `msgpack:"id"`
	Action  string           `msgpack:"action,omitempty"`
	Phrases []string         `msgpack:"p,omitempty"`
	Limit   int              `msgpack:"l,omitempty"`
	And     bool             `msgpack:"and,omitempty"`
	Items   []map[string]any `msgpack:"items,omitempty"`
}

// SearchResponse answers a search.
type SearchResponse struct {
	ID        string           `msgpack:"id"`
	Results   []map[string]any `msgpack:"r"`
	Count     int              `msgpack:"c"`
	TimeTaken int64            `msgpack:"t"`
}

// StatusResponse answers add, clear, stats and health.
type StatusResponse struct {
	ID     string         `msgpack:"id"`
	Status string         `msgpack:"status"`
	Added  int            `msgpack:"added,omitempty"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

const (
	ActionSearch = "search"
	ActionAdd    = "add"
	ActionClear  = "clear"
	ActionStats  = "stats"
	ActionHealth = "health"
)
