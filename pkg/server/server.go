package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/trieserve/internal/logger"
	"github.com/bastiangx/trieserve/pkg/config"
	"github.com/bastiangx/trieserve/pkg/dictionary"
	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Searcher is the index the server answers from.
type Searcher = suggest.ISearcher[*dictionary.Document]

// RequestRecorder counts handled requests.
type RequestRecorder interface {
	Request(action string, err error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default "server" logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records every handled request.
func WithMetrics(r RequestRecorder) Option {
	return func(s *Server) { s.metrics = r }
}

// WithIDField makes added documents without a value in field receive
// sequential ids starting at next.
func WithIDField(field string, next int) Option {
	return func(s *Server) {
		s.idField = field
		s.nextID = next
	}
}

// Server handles msgpack IPC for a Searcher.
type Server struct {
	searcher Searcher
	cfg      config.ServerConfig
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	log      *log.Logger
	metrics  RequestRecorder
	idField  string
	nextID   int
	requests int
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(r io.Reader, w io.Writer, searcher Searcher, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		searcher: searcher,
		cfg:      cfg,
		dec:      msgpack.NewDecoder(r),
		enc:      msgpack.NewEncoder(w),
		nextID:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.New("server")
	}
	return s
}

// Start announces readiness and serves requests until the input ends or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Input closed after [%d] requests", s.requests)
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return fmt.Errorf("reading request: %w", err)
		}
		s.requests++

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			if err := s.sendError("", apperrors.Newf(apperrors.ErrInvalidArgument, "invalid msgpack request: %v", err)); err != nil {
				return err
			}
			continue
		}
		if err := s.handle(req); err != nil {
			return err
		}
	}
}

// handle answers req. Only write failures are returned.
func (s *Server) handle(req Request) error {
	action := req.Action
	if action == "" && len(req.Phrases) > 0 {
		action = ActionSearch
	}

	var resp any
	var err error
	switch action {
	case ActionSearch:
		resp, err = s.handleSearch(req)
	case ActionAdd:
		resp, err = s.handleAdd(req)
	case ActionClear:
		err = s.searcher.Clear()
		resp = StatusResponse{ID: req.ID, Status: "ok"}
	case ActionStats:
		var stats map[string]int
		stats, err = s.searcher.Stats()
		resp = StatusResponse{ID: req.ID, Status: "ok", Stats: stats}
	case ActionHealth:
		resp = StatusResponse{ID: req.ID, Status: "ok"}
	default:
		err = apperrors.Newf(apperrors.ErrInvalidArgument, "unknown action: %q", req.Action)
	}

	if s.metrics != nil {
		s.metrics.Request(action, err)
	}
	if err != nil {
		s.log.Debugf("Request %s (%s) failed: %v", req.ID, action, err)
		return s.sendError(req.ID, err)
	}
	return s.send(resp)
}

func (s *Server) handleSearch(req Request) (SearchResponse, error) {
	if len(req.Phrases) == 0 {
		return SearchResponse{}, apperrors.New(apperrors.ErrInvalidArgument, "missing 'p' parameter")
	}
	if s.cfg.MaxPhrases > 0 && len(req.Phrases) > s.cfg.MaxPhrases {
		return SearchResponse{}, apperrors.Newf(apperrors.ErrInvalidArgument,
			"%d phrases exceed the maximum of %d", len(req.Phrases), s.cfg.MaxPhrases)
	}
	if req.Limit < 0 {
		return SearchResponse{}, apperrors.Newf(apperrors.ErrInvalidArgument, "limit must be non-negative, got %d", req.Limit)
	}
	limit := req.Limit
	if s.cfg.MaxLimit > 0 && (limit == 0 || limit > s.cfg.MaxLimit) {
		limit = s.cfg.MaxLimit
	}

	opts := suggest.SearchOptions[*dictionary.Document]{Limit: limit}
	if req.And {
		opts.Reducer = suggest.NewUnionReducer[*dictionary.Document]()
	}

	start := time.Now()
	docs, err := s.searcher.SearchWith(req.Phrases, opts)
	if err != nil {
		return SearchResponse{}, err
	}
	elapsed := time.Since(start)

	results := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		results = append(results, map[string]any(*d))
	}
	return SearchResponse{
		ID:        req.ID,
		Results:   results,
		Count:     len(results),
		TimeTaken: elapsed.Microseconds(),
	}, nil
}

func (s *Server) handleAdd(req Request) (StatusResponse, error) {
	if len(req.Items) == 0 {
		return StatusResponse{}, apperrors.New(apperrors.ErrInvalidArgument, "missing 'items' parameter")
	}
	docs := make([]*dictionary.Document, 0, len(req.Items))
	for _, item := range req.Items {
		if item == nil {
			continue
		}
		d := dictionary.Document(item)
		docs = append(docs, &d)
	}
	if s.idField != "" {
		s.nextID = dictionary.AssignIDs(docs, s.idField, s.nextID)
	}
	if err := s.searcher.Add(docs...); err != nil {
		return StatusResponse{}, err
	}
	return StatusResponse{ID: req.ID, Status: "ok", Added: len(docs)}, nil
}

func (s *Server) send(resp any) error {
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id string, err error) error {
	return s.send(ErrorResponse{ID: id, Error: err.Error(), Code: apperrors.Code(err)})
}
