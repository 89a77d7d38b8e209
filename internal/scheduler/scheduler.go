package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"Bolsa/internal/aggregator"
	"Bolsa/internal/collector"
	"Bolsa/internal/mainloop"
	"Bolsa/internal/model"
	"Bolsa/internal/notifier"
	"Bolsa/internal/recorder"
	"Bolsa/internal/search"
	"Bolsa/internal/viewmodel"
	"Bolsa/internal/watchlist"
)

// Refresh triggers, as stored with each recorded run.
const (
	TriggerCron      = "CRON"
	TriggerManual    = "MANUAL"
	TriggerWatchlist = "WATCHLIST"
)

// Presenter receives rendered reports. notifier.Console satisfies it.
type Presenter interface {
	Send(text string) error
}

// Scheduler drives periodic refreshes and reacts to watchlist changes.
// Everything shown to the user is handed to Loop.
type Scheduler struct {
	Cron      *cron.Cron
	Store     *watchlist.Store
	Engine    *aggregator.Engine
	Fetcher   collector.Fetcher
	Recorder  recorder.Recorder
	Loop      *mainloop.Loop
	Presenter Presenter
	Assembler viewmodel.Assembler
	// Searcher, when set, serves /search with debouncing and delivers
	// results through PresentSearch.
	Searcher *search.Searcher
	Logger   *zap.Logger
	Ctx      context.Context
	Now      func() time.Time

	mu      sync.Mutex
	latest  []model.WatchlistEntry
	unwatch func()
	watched chan struct{}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, store *watchlist.Store, engine *aggregator.Engine, fetcher collector.Fetcher,
	rec recorder.Recorder, loop *mainloop.Loop, presenter Presenter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Store:     store,
		Engine:    engine,
		Fetcher:   fetcher,
		Recorder:  rec,
		Loop:      loop,
		Presenter: presenter,
		Logger:    logger,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the periodic watchlist refresh.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RefreshNow(s.Ctx, TriggerCron) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler and the watchlist event watcher.
func (s *Scheduler) Start() {
	events, cancel := s.Store.Subscribe()
	done := make(chan struct{})
	s.mu.Lock()
	s.unwatch = cancel
	s.watched = done
	s.mu.Unlock()
	go s.watch(events, done)

	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	if s.Searcher != nil {
		s.Searcher.Stop()
	}

	s.mu.Lock()
	cancel, done := s.unwatch, s.watched
	s.unwatch, s.watched = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	s.Logger.Info("scheduler stopped")
}

// RefreshNow refreshes the whole watchlist, records the run and posts the
// rebuilt watchlist to the main loop.
func (s *Scheduler) RefreshNow(ctx context.Context, trigger string) *aggregator.RefreshResult {
	symbols := s.Store.Symbols()
	res := s.Engine.Refresh(ctx, symbols)
	s.record(trigger, len(symbols), res)
	s.present(res.Series)
	return res
}

// Latest returns the entries most recently presented.
func (s *Scheduler) Latest() []model.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WatchlistEntry(nil), s.latest...)
}

// Detail loads the single-symbol view. Series, metrics and company news are
// fetched concurrently; only a series failure fails the call. Symbols off the
// watchlist are not cached.
func (s *Scheduler) Detail(ctx context.Context, symbol model.Symbol) (*model.StockDetail, error) {
	symbol = model.NewSymbol(string(symbol))

	var (
		wg        sync.WaitGroup
		series    model.TimeSeries
		seriesErr error
		metrics   *model.FinancialMetrics
		news      []model.NewsStory
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		if s.Store.Contains(symbol) {
			series, seriesErr = s.Engine.Series(ctx, symbol)
			return
		}
		series, seriesErr = s.Engine.Lookup(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		m, err := s.Fetcher.FetchMetrics(ctx, symbol)
		if err != nil {
			s.Logger.Warn("metrics fetch failed", zap.String("symbol", string(symbol)), zap.Error(err))
			return
		}
		metrics = m
	}()
	go func() {
		defer wg.Done()
		n, err := s.Fetcher.FetchNews(ctx, model.CompanyNews(symbol))
		if err != nil {
			s.Logger.Warn("company news fetch failed", zap.String("symbol", string(symbol)), zap.Error(err))
			return
		}
		news = n
	}()
	wg.Wait()

	if seriesErr != nil {
		return nil, fmt.Errorf("load detail %s: %w", symbol, seriesErr)
	}
	name, _ := s.Store.CompanyName(symbol)
	return s.Assembler.BuildDetail(symbol, name, series, metrics, news), nil
}

// News fetches headlines for scope.
func (s *Scheduler) News(ctx context.Context, scope model.NewsScope) ([]model.NewsStory, error) {
	return s.Fetcher.FetchNews(ctx, scope)
}

// PresentSearch posts search results to the main loop.
func (s *Scheduler) PresentSearch(query string, results []model.SearchResult) {
	s.Loop.Post(func() {
		s.send(notifier.FormatSearchResults(query, results))
	})
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	args := fields[1:]

	switch fields[0] {
	case "/list":
		entries := s.Assembler.Assemble(s.Engine.Cache.Snapshot(s.Store.Symbols()), s.Store)
		return notifier.FormatWatchlist(entries, s.Now())
	case "/refresh":
		res := s.RefreshNow(s.Ctx, TriggerManual)
		return fmt.Sprintf("refreshed %d symbols (%d fetched, %d failed) in %s",
			len(res.Series), len(res.Fetched), len(res.Failures), res.Duration.Round(time.Millisecond))
	case "/add":
		if len(args) == 0 {
			return "usage: /add SYMBOL [Company Name]"
		}
		symbol := model.NewSymbol(args[0])
		if err := s.Store.Add(symbol, strings.Join(args[1:], " ")); err != nil {
			s.Logger.Error("add symbol failed", zap.String("symbol", string(symbol)), zap.Error(err))
			return fmt.Sprintf("❌ add %s failed: %v", symbol, err)
		}
		return fmt.Sprintf("✅ %s added", symbol)
	case "/remove":
		if len(args) == 0 {
			return "usage: /remove SYMBOL"
		}
		symbol := model.NewSymbol(args[0])
		if err := s.Store.Remove(symbol); err != nil {
			s.Logger.Error("remove symbol failed", zap.String("symbol", string(symbol)), zap.Error(err))
			return fmt.Sprintf("❌ remove %s failed: %v", symbol, err)
		}
		return fmt.Sprintf("✅ %s removed", symbol)
	case "/news":
		scope := model.TopStories
		if len(args) > 0 {
			scope = model.CompanyNews(model.NewSymbol(args[0]))
		}
		stories, err := s.News(s.Ctx, scope)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", scope, err)
		}
		return notifier.FormatNews(scope, stories)
	case "/detail":
		if len(args) == 0 {
			return "usage: /detail SYMBOL"
		}
		d, err := s.Detail(s.Ctx, model.Symbol(args[0]))
		if err != nil {
			if errors.Is(err, collector.ErrNoData) {
				return fmt.Sprintf("no data for %s", model.NewSymbol(args[0]))
			}
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatDetail(d)
	case "/search":
		query := strings.Join(args, " ")
		if query == "" {
			return "usage: /search QUERY"
		}
		if s.Searcher != nil {
			s.Searcher.Type(query)
			return ""
		}
		results, err := s.Fetcher.SearchSymbols(s.Ctx, query)
		if err != nil {
			s.Logger.Warn("search failed", zap.String("query", query), zap.Error(err))
			results = nil
		}
		return notifier.FormatSearchResults(query, results)
	default:
		return "commands:\n• /list\n• /refresh\n• /add SYMBOL [Company Name]\n• /remove SYMBOL\n• /news [SYMBOL]\n• /detail SYMBOL\n• /search QUERY"
	}
}

func (s *Scheduler) watch(events <-chan watchlist.Event, done chan struct{}) {
	defer close(done)
	for evt := range events {
		switch evt.Kind {
		case watchlist.EventRemoved:
			s.Engine.Evict(evt.Symbol)
			s.present(s.Engine.Cache.Snapshot(s.Store.Symbols()))
		case watchlist.EventAdded:
			s.RefreshNow(s.Ctx, TriggerWatchlist)
		}
	}
}

// present assembles and sends the watchlist on the main loop.
func (s *Scheduler) present(series model.SymbolSeriesMap) {
	s.Loop.Post(func() {
		entries := s.Assembler.Assemble(series, s.Store)
		s.mu.Lock()
		s.latest = entries
		s.mu.Unlock()
		s.send(notifier.FormatWatchlist(entries, s.Now()))
	})
}

func (s *Scheduler) record(trigger string, requested int, res *aggregator.RefreshResult) {
	run := recorder.NewRefreshRun(trigger, res.StartedAt)
	run.Duration = res.Duration
	run.Requested = requested
	run.Fetched = len(res.Fetched)
	run.Resolved = len(res.Series)
	run.Failed = len(res.Failures)
	if err := s.Recorder.RecordRefresh(run); err != nil {
		s.Logger.Error("record refresh failed", zap.Error(err))
	}
	for symbol, ferr := range res.Failures {
		if err := s.Recorder.RecordFailure(recorder.FailureFrom(run.ID, symbol, ferr)); err != nil {
			s.Logger.Error("record fetch failure failed", zap.String("symbol", string(symbol)), zap.Error(err))
		}
	}
}

func (s *Scheduler) send(text string) {
	if s.Presenter == nil {
		return
	}
	if err := s.Presenter.Send(text); err != nil {
		s.Logger.Error("send report failed", zap.Error(err))
	}
}
