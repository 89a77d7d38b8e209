package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"Bolsa/internal/model"
)

const (
	// DefaultBaseURL is the Finnhub REST root.
	DefaultBaseURL = "https://finnhub.io/api/v1/"

	newsDateLayout = "2006-01-02"
	newsWindowDays = 7
	day            = 24 * time.Hour
)

// FinnhubFetcher implements Fetcher against the Finnhub REST API.
// Authentication is the token query parameter on every request.
type FinnhubFetcher struct {
	BaseURL string
	APIKey  string
	Client  *resty.Client
	Now     func() time.Time
}

// NewFinnhubFetcher creates a fetcher with optional proxy support.
func NewFinnhubFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *FinnhubFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &FinnhubFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  client,
		Now:     time.Now,
	}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

// finnhubCandles is the parallel-array shape of stock/candle.
type finnhubCandles struct {
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Time   []int64   `json:"t"`
	Status string    `json:"s"`
}

type finnhubMetrics struct {
	Metric *struct {
		TenDayAverageTradingVolume float64 `json:"10DayAverageTradingVolume"`
		WeekHigh52                 float64 `json:"52WeekHigh"`
		WeekLow52                  float64 `json:"52WeekLow"`
		WeekLowDate52              string  `json:"52WeekLowDate"`
		WeekPriceReturnDaily52     float64 `json:"52WeekPriceReturnDaily"`
		Beta                       float64 `json:"beta"`
	} `json:"metric"`
}

type finnhubSearch struct {
	Count  int `json:"count"`
	Result []struct {
		Description   string `json:"description"`
		DisplaySymbol string `json:"displaySymbol"`
		Symbol        string `json:"symbol"`
		Type          string `json:"type"`
	} `json:"result"`
}

type finnhubStory struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// FetchSeries fetches one-minute candles for the trailing windowDays days,
// ending one day before now so the latest partial day is excluded.
func (f *FinnhubFetcher) FetchSeries(ctx context.Context, symbol model.Symbol, windowDays int) (model.TimeSeries, error) {
	const op = "fetch series"
	if symbol == "" {
		return nil, newFetchError(op, "", KindInvalidURL, errors.New("empty symbol"))
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	to := f.now().Add(-day)
	from := to.Add(-time.Duration(windowDays) * day)

	body, err := f.get(ctx, op, string(symbol), "stock/candle", map[string]string{
		"symbol":     string(symbol),
		"resolution": "1",
		"from":       strconv.FormatInt(from.Unix(), 10),
		"to":         strconv.FormatInt(to.Unix(), 10),
	})
	if err != nil {
		return nil, err
	}

	var raw finnhubCandles
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newFetchError(op, string(symbol), KindDecoding, err)
	}
	switch {
	case raw.Status == "no_data":
		return nil, newFetchError(op, string(symbol), KindNoData, nil)
	case raw.Status != "ok" || raw.Time == nil || raw.Close == nil:
		return nil, newFetchError(op, string(symbol), KindDecoding,
			fmt.Errorf("unexpected candle payload: status %q", raw.Status))
	}
	n := len(raw.Time)
	if n == 0 {
		return nil, newFetchError(op, string(symbol), KindNoData, nil)
	}
	if len(raw.Open) != n || len(raw.High) != n || len(raw.Low) != n || len(raw.Close) != n {
		return nil, newFetchError(op, string(symbol), KindDecoding,
			fmt.Errorf("mismatched candle arrays: t=%d o=%d h=%d l=%d c=%d",
				n, len(raw.Open), len(raw.High), len(raw.Low), len(raw.Close)))
	}

	series := make(model.TimeSeries, n)
	for i := 0; i < n; i++ {
		series[i] = model.Candle{
			Time:  time.Unix(raw.Time[i], 0),
			Open:  raw.Open[i],
			High:  raw.High[i],
			Low:   raw.Low[i],
			Close: raw.Close[i],
		}
	}
	// Most recent first
	sort.SliceStable(series, func(i, j int) bool { return series[i].Time.After(series[j].Time) })
	return series, nil
}

func (f *FinnhubFetcher) FetchMetrics(ctx context.Context, symbol model.Symbol) (*model.FinancialMetrics, error) {
	const op = "fetch metrics"
	if symbol == "" {
		return nil, newFetchError(op, "", KindInvalidURL, errors.New("empty symbol"))
	}
	body, err := f.get(ctx, op, string(symbol), "stock/metric", map[string]string{
		"symbol": string(symbol),
		"metric": "all",
	})
	if err != nil {
		return nil, err
	}
	var raw finnhubMetrics
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newFetchError(op, string(symbol), KindDecoding, err)
	}
	if raw.Metric == nil {
		return nil, newFetchError(op, string(symbol), KindNoData, nil)
	}
	m := raw.Metric
	return &model.FinancialMetrics{
		FiftyTwoWeekHigh:    m.WeekHigh52,
		FiftyTwoWeekLow:     m.WeekLow52,
		FiftyTwoWeekLowDate: m.WeekLowDate52,
		FiftyTwoWeekReturn:  m.WeekPriceReturnDaily52,
		Beta:                m.Beta,
		TenDayAvgVolume:     m.TenDayAverageTradingVolume,
	}, nil
}

// SearchSymbols looks up symbols matching query. A blank query returns no
// results without a request.
func (f *FinnhubFetcher) SearchSymbols(ctx context.Context, query string) ([]model.SearchResult, error) {
	const op = "search"
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SearchResult{}, nil
	}
	body, err := f.get(ctx, op, "", "search", map[string]string{"q": query})
	if err != nil {
		return nil, err
	}
	var raw finnhubSearch
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newFetchError(op, "", KindDecoding, err)
	}
	results := make([]model.SearchResult, 0, len(raw.Result))
	for _, r := range raw.Result {
		results = append(results, model.SearchResult{
			Description:   r.Description,
			DisplaySymbol: r.DisplaySymbol,
			Symbol:        r.Symbol,
			Type:          r.Type,
		})
	}
	return results, nil
}

// FetchNews fetches general top stories or the last week of company news.
func (f *FinnhubFetcher) FetchNews(ctx context.Context, scope model.NewsScope) ([]model.NewsStory, error) {
	const op = "fetch news"
	var (
		path   string
		params map[string]string
	)
	if scope.IsTopStories() {
		path = "news"
		params = map[string]string{"category": "general"}
	} else {
		today := f.now()
		from := today.Add(-newsWindowDays * day)
		path = "company-news"
		params = map[string]string{
			"symbol": string(scope.Symbol),
			"from":   from.Format(newsDateLayout),
			"to":     today.Format(newsDateLayout),
		}
	}

	body, err := f.get(ctx, op, string(scope.Symbol), path, params)
	if err != nil {
		return nil, err
	}
	var raw []finnhubStory
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newFetchError(op, string(scope.Symbol), KindDecoding, err)
	}
	stories := make([]model.NewsStory, 0, len(raw))
	for _, s := range raw {
		stories = append(stories, model.NewsStory{
			Category: s.Category,
			Time:     time.Unix(s.Datetime, 0),
			Headline: s.Headline,
			Image:    s.Image,
			Related:  s.Related,
			Source:   s.Source,
			Summary:  s.Summary,
			URL:      s.URL,
		})
	}
	return stories, nil
}

// get issues one authenticated GET and returns the raw body. Non-2xx
// statuses are transport failures; an empty 2xx body is NoData.
func (f *FinnhubFetcher) get(ctx context.Context, op, symbol, path string, params map[string]string) ([]byte, error) {
	if err := validateBaseURL(f.BaseURL); err != nil {
		return nil, newFetchError(op, symbol, KindInvalidURL, err)
	}
	resp, err := f.Client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("token", f.APIKey).
		Get(path)
	if err != nil {
		return nil, newFetchError(op, symbol, KindTransport, err)
	}
	if !resp.IsSuccess() {
		return nil, newFetchError(op, symbol, KindTransport,
			fmt.Errorf("status %d, body: %s", resp.StatusCode(), string(resp.Body())))
	}
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, newFetchError(op, symbol, KindNoData, nil)
	}
	return body, nil
}

func (f *FinnhubFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url %q is not absolute", raw)
	}
	return nil
}
