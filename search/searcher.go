package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
)

// DefaultTopK is the result count used when the caller does not ask for one.
const DefaultTopK = 5

// Searcher runs semantic brand queries against a vector index.
// It holds no per-query state and is safe for concurrent use.
type Searcher struct {
	gateway *ai.Gateway
	index   index.Index
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(gateway *ai.Gateway, idx index.Index, opts ...Option) (*Searcher, error) {
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		gateway: gateway,
		index:   idx,
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search returns the index's ranked matches for query, unmodified.
// A nil or empty filter searches the whole index. An embedding failure is
// returned as the gateway's *ai.EmbeddingError.
func (s *Searcher) Search(ctx context.Context, query string, filter *core.FilterSpec, topK int) ([]core.Match, error) {
	return s.search(ctx, query, filter, topK, &noopMonitor{})
}

func (s *Searcher) search(ctx context.Context, query string, filter *core.FilterSpec, topK int, monitor SearchMonitor) ([]core.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		return nil, ErrInvalidTopK
	}

	monitor.Start(query, filter, topK)

	vector, err := s.gateway.Embed(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector)

	if filter.IsEmpty() {
		filter = nil
	}

	matches, err := s.index.Query(ctx, vector, topK, filter)
	if err != nil {
		s.logger.Error("error querying index", "index", s.index.Name(), "err", err)
		return nil, err
	}
	monitor.AfterIndexQuery(matches)

	s.logger.Debug("search complete", "query", query, "filter", filter.String(), "matches", len(matches))
	return matches, nil
}

// FindBrands searches and consolidates the matches to one result per brand.
func (s *Searcher) FindBrands(ctx context.Context, query string, filter *core.FilterSpec, topK int) ([]core.ConsolidatedResult, error) {
	return s.FindBrandsWithMonitor(ctx, query, filter, topK, nil)
}

// FindBrandsWithMonitor is FindBrands with callbacks at each stage of the search.
func (s *Searcher) FindBrandsWithMonitor(ctx context.Context, query string, filter *core.FilterSpec, topK int, monitor SearchMonitor) ([]core.ConsolidatedResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	matches, err := s.search(ctx, query, filter, topK, monitor)
	if err != nil {
		return nil, err
	}

	results := Consolidate(matches)
	monitor.Finish(results)
	return results, nil
}
