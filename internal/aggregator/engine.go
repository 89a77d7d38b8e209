// Package aggregator fetches per-symbol series concurrently and joins the
// results into a single map.
package aggregator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Bolsa/internal/cache"
	"Bolsa/internal/collector"
	"Bolsa/internal/model"
)

// FailureHook observes fetches that settled with an error.
type FailureHook func(symbol model.Symbol, err error)

// RefreshResult is the outcome of one Refresh call.
type RefreshResult struct {
	// Series holds every requested symbol with a resolved series, cached or new.
	Series model.SymbolSeriesMap
	// Failures holds symbols whose fetch settled with an error in this call.
	Failures  map[model.Symbol]error
	Fetched   []model.Symbol
	StartedAt time.Time
	Duration  time.Duration
}

// Engine resolves series for a set of symbols, fetching only the missing ones.
type Engine struct {
	Fetcher        collector.Fetcher
	Cache          *cache.SeriesCache
	WindowDays     int
	RequestTimeout time.Duration
	OnFailure      FailureHook
	Logger         *zap.Logger

	mu        sync.Mutex
	evictions map[model.Symbol]uint64
	flushes   uint64
}

// evictionGen identifies the eviction state of one symbol. A fetch result is
// stored only if the generation it started under is still current.
type evictionGen struct {
	symbol uint64
	flush  uint64
}

// NewEngine creates an Engine. A zero requestTimeout disables the per-request timeout.
func NewEngine(fetcher collector.Fetcher, c *cache.SeriesCache, windowDays int, requestTimeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewSeriesCache(0)
	}
	return &Engine{
		Fetcher:        fetcher,
		Cache:          c,
		WindowDays:     windowDays,
		RequestTimeout: requestTimeout,
		Logger:         logger,
	}
}

type fetchOutcome struct {
	symbol model.Symbol
	gen    evictionGen
	series model.TimeSeries
	err    error
}

// Refresh issues one concurrent fetch per symbol not already cached and waits
// for all of them to settle. A failed fetch leaves its symbol out of Series.
// Each call has its own join barrier, so concurrent calls are safe.
func (e *Engine) Refresh(ctx context.Context, symbols []model.Symbol) *RefreshResult {
	start := time.Now()
	wanted := dedupe(symbols)

	var missing []model.Symbol
	for _, s := range wanted {
		if _, ok := e.Cache.Get(s); !ok {
			missing = append(missing, s)
		}
	}

	outcomes := make(chan fetchOutcome, len(missing))
	var wg sync.WaitGroup
	for _, s := range missing {
		wg.Add(1)
		go func(symbol model.Symbol, gen evictionGen) {
			defer wg.Done()
			series, err := e.fetch(ctx, symbol)
			outcomes <- fetchOutcome{symbol: symbol, gen: gen, series: series, err: err}
		}(s, e.generation(s))
	}
	wg.Wait()
	close(outcomes)

	result := &RefreshResult{
		Failures:  make(map[model.Symbol]error),
		Fetched:   missing,
		StartedAt: start,
	}
	for o := range outcomes {
		if o.err != nil {
			result.Failures[o.symbol] = o.err
			e.Logger.Warn("series fetch failed",
				zap.String("symbol", string(o.symbol)),
				zap.String("kind", string(collector.KindOf(o.err))),
				zap.Error(o.err))
			if e.OnFailure != nil {
				e.OnFailure(o.symbol, o.err)
			}
			continue
		}
		if !e.store(o.symbol, o.series, o.gen) {
			e.Logger.Debug("discarding series evicted during fetch", zap.String("symbol", string(o.symbol)))
		}
	}

	result.Series = e.Cache.Snapshot(wanted)
	result.Duration = time.Since(start)

	e.Logger.Info("refresh complete",
		zap.Int("requested", len(wanted)),
		zap.Int("fetched", len(missing)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("resolved", len(result.Series)),
		zap.Duration("duration", result.Duration))
	return result
}

// Evict drops a symbol so the next Refresh fetches it again. A fetch for
// symbol already in flight is not stored when it completes.
func (e *Engine) Evict(symbol model.Symbol) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evictions == nil {
		e.evictions = make(map[model.Symbol]uint64)
	}
	e.evictions[symbol]++
	e.Cache.Evict(symbol)
}

// Invalidate drops every cached series, including fetches in flight.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushes++
	e.Cache.Flush()
}

// Series returns the cached series for symbol, fetching and caching it if absent.
func (e *Engine) Series(ctx context.Context, symbol model.Symbol) (model.TimeSeries, error) {
	if s, ok := e.Cache.Get(symbol); ok {
		return s, nil
	}
	gen := e.generation(symbol)
	series, err := e.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	e.store(symbol, series, gen)
	return series, nil
}

// Lookup returns the cached series for symbol, or fetches it without caching.
func (e *Engine) Lookup(ctx context.Context, symbol model.Symbol) (model.TimeSeries, error) {
	if s, ok := e.Cache.Get(symbol); ok {
		return s, nil
	}
	return e.fetch(ctx, symbol)
}

func (e *Engine) generation(symbol model.Symbol) evictionGen {
	e.mu.Lock()
	defer e.mu.Unlock()
	return evictionGen{symbol: e.evictions[symbol], flush: e.flushes}
}

// store caches series unless symbol was evicted or the cache flushed since gen.
func (e *Engine) store(symbol model.Symbol, series model.TimeSeries, gen evictionGen) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evictions[symbol] != gen.symbol || e.flushes != gen.flush {
		return false
	}
	e.Cache.Set(symbol, series)
	return true
}

func (e *Engine) fetch(ctx context.Context, symbol model.Symbol) (model.TimeSeries, error) {
	if e.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.RequestTimeout)
		defer cancel()
	}
	return e.Fetcher.FetchSeries(ctx, symbol, e.WindowDays)
}

func dedupe(symbols []model.Symbol) []model.Symbol {
	seen := make(map[model.Symbol]struct{}, len(symbols))
	out := make([]model.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
