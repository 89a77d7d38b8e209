package collector

import (
	"context"

	"Bolsa/internal/model"
)

// Fetcher defines the interface for the remote market-data, news and search service.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol model.Symbol, windowDays int) (model.TimeSeries, error)
	FetchMetrics(ctx context.Context, symbol model.Symbol) (*model.FinancialMetrics, error)
	SearchSymbols(ctx context.Context, query string) ([]model.SearchResult, error)
	FetchNews(ctx context.Context, scope model.NewsScope) ([]model.NewsStory, error)
	Name() string
}
