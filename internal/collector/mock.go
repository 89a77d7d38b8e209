package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"Bolsa/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// It is safe for concurrent use.
type MockFetcher struct {
	BasePrice float64
	Series    map[model.Symbol]model.TimeSeries
	Metrics   map[model.Symbol]*model.FinancialMetrics
	News      []model.NewsStory
	Results   []model.SearchResult
	Fail      map[model.Symbol]error
	// Block makes FetchSeries wait for the channel to close or ctx to end.
	Block map[model.Symbol]chan struct{}

	mu     sync.Mutex
	calls  map[model.Symbol]int
	search []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(ctx context.Context, symbol model.Symbol, windowDays int) (model.TimeSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[model.Symbol]int)
	}
	m.calls[symbol]++
	block := m.Block[symbol]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, newFetchError("fetch series", string(symbol), KindTransport, ctx.Err())
		}
	}
	if err := m.Fail[symbol]; err != nil {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	return generateMockSeries(m.BasePrice, windowDays), nil
}

func (m *MockFetcher) FetchMetrics(_ context.Context, symbol model.Symbol) (*model.FinancialMetrics, error) {
	if err := m.Fail[symbol]; err != nil {
		return nil, err
	}
	if met, ok := m.Metrics[symbol]; ok {
		return met, nil
	}
	return nil, newFetchError("fetch metrics", string(symbol), KindNoData, nil)
}

func (m *MockFetcher) SearchSymbols(_ context.Context, query string) ([]model.SearchResult, error) {
	m.mu.Lock()
	m.search = append(m.search, query)
	m.mu.Unlock()

	var out []model.SearchResult
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, r := range m.Results {
		if strings.Contains(strings.ToUpper(r.Symbol), q) || strings.Contains(strings.ToUpper(r.Description), q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchNews(_ context.Context, scope model.NewsScope) ([]model.NewsStory, error) {
	if !scope.IsTopStories() {
		if err := m.Fail[scope.Symbol]; err != nil {
			return nil, err
		}
	}
	return m.News, nil
}

// Calls returns how many series fetches were issued for symbol.
func (m *MockFetcher) Calls(symbol model.Symbol) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// Queries returns the search queries received, in order.
func (m *MockFetcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.search...)
}

// generateMockSeries builds one candle per day, most recent first.
func generateMockSeries(basePrice float64, days int) model.TimeSeries {
	if days <= 0 {
		days = 7
	}
	if basePrice == 0 {
		basePrice = 100
	}
	now := time.Now()
	series := make(model.TimeSeries, days)
	for i := 0; i < days; i++ {
		p := basePrice * (1 + float64(days/2-i)*0.001)
		series[i] = model.Candle{
			Time:  now.AddDate(0, 0, -(i + 1)),
			Open:  p * 0.999,
			High:  p * 1.005,
			Low:   p * 0.995,
			Close: p,
		}
	}
	return series
}
