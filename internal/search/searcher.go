package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"Bolsa/internal/model"
)

// SymbolSearcher is the part of collector.Fetcher used here.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]model.SearchResult, error)
}

// ResultHandler receives the results of the latest search.
type ResultHandler func(query string, results []model.SearchResult)

// Searcher debounces keystrokes and tags each issued request with a
// generation. A response whose generation is no longer the latest is dropped
// when it arrives, and the previous in-flight request is cancelled on issue.
type Searcher struct {
	source    SymbolSearcher
	debouncer *Debouncer
	onResult  ResultHandler
	logger    *zap.Logger
	// OnStale, if set, is called for each response dropped as stale.
	OnStale func(query string)

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	ctx        context.Context
}

// NewSearcher creates a Searcher bound to ctx; cancelling ctx abandons
// in-flight requests.
func NewSearcher(ctx context.Context, source SymbolSearcher, window time.Duration, onResult ResultHandler, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		source:    source,
		debouncer: NewDebouncer(window),
		onResult:  onResult,
		logger:    logger,
		ctx:       ctx,
	}
}

// Type records a keystroke. Blank queries are ignored.
func (s *Searcher) Type(query string) {
	q := strings.TrimSpace(query)
	if q == "" {
		return
	}
	s.debouncer.Trigger(func() { s.run(q) })
}

// Stop cancels the pending keystroke and any in-flight request.
func (s *Searcher) Stop() {
	s.debouncer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(query string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	results, err := s.source.SearchSymbols(ctx, query)

	s.mu.Lock()
	current := s.generation == gen
	s.mu.Unlock()
	if !current {
		s.logger.Debug("discarding stale search response", zap.String("query", query))
		if s.OnStale != nil {
			s.OnStale(query)
		}
		return
	}
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		results = []model.SearchResult{}
	}
	if s.onResult != nil {
		s.onResult(query, results)
	}
}
