package suggest

import (
	"regexp"
	"time"

	"github.com/bastiangx/trieserve/internal/logger"
	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/charmbracelet/log"
)

// DefaultSplit splits phrases and keys on any whitespace.
var DefaultSplit = regexp.MustCompile(`\s`)

// Options configures a Trie. Start from DefaultOptions.
type Options struct {
	// Cache enables the phrase and word-node caches.
	Cache bool
	// ExpandRules is the internationalization table. Nil selects DefaultExpandRules,
	// an empty slice disables expansion.
	ExpandRules []ExpandRule
	// FoldDiacritics also inserts the fully unaccented form of every value.
	FoldDiacritics bool
	IgnoreCase     bool
	// InsertFullUnsplitKey inserts the whole key in addition to its split parts.
	InsertFullUnsplitKey bool
	MaxCacheSize         int
	MaxWordCacheSize     int
	// Min is the prefix compression length: the first trie edge holds Min tokens.
	Min int
	// SplitOn splits keys on insertion, SplitOnGet splits phrases on search.
	// Nil disables splitting.
	SplitOn    *regexp.Regexp
	SplitOnGet *regexp.Regexp
	// Tokenizer replaces the built-in rune tokenizer.
	Tokenizer Tokenizer
	// IndexField identifies items across phrases; reducers require it.
	IndexField hasharray.KeyField
	Logger     *log.Logger
	Metrics    Recorder
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		Cache:            true,
		IgnoreCase:       true,
		MaxCacheSize:     64,
		MaxWordCacheSize: 64,
		Min:              1,
		SplitOn:          DefaultSplit,
		SplitOnGet:       DefaultSplit,
	}
}

func (o *Options) normalize() error {
	if o.Min < 0 {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "min must be >= 0, got %d", o.Min)
	}
	if o.Min == 0 {
		o.Min = 1
	}
	if o.Cache {
		if o.MaxCacheSize <= 0 {
			return apperrors.Newf(apperrors.ErrInvalidArgument, "max cache size must be > 0, got %d", o.MaxCacheSize)
		}
		if o.MaxWordCacheSize <= 0 {
			return apperrors.Newf(apperrors.ErrInvalidArgument, "max word cache size must be > 0, got %d", o.MaxWordCacheSize)
		}
	}
	for i, r := range o.ExpandRules {
		if r.Pattern == nil {
			return apperrors.Newf(apperrors.ErrInvalidArgument, "expand rule %d has no pattern", i)
		}
	}
	if o.ExpandRules == nil {
		o.ExpandRules = DefaultExpandRules
	}
	if o.Tokenizer == nil {
		o.Tokenizer = CharTokenizer{}
	}
	if o.Logger == nil {
		o.Logger = logger.New("suggest")
	}
	if o.Metrics == nil {
		o.Metrics = nopRecorder{}
	}
	return nil
}

// Recorder receives instrumentation from a Trie.
type Recorder interface {
	CacheLookup(cache string, hit bool)
	ItemsAdded(n int)
	SearchCompleted(phrases, results int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, bool)                {}
func (nopRecorder) ItemsAdded(int)                          {}
func (nopRecorder) SearchCompleted(int, int, time.Duration) {}
