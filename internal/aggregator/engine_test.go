package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Bolsa/internal/cache"
	"Bolsa/internal/collector"
	"Bolsa/internal/model"
)

func seriesOf(closes ...float64) model.TimeSeries {
	s := make(model.TimeSeries, len(closes))
	base := time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s[i] = model.Candle{Time: base.AddDate(0, 0, -i), Close: c}
	}
	return s
}

func newEngine(f collector.Fetcher, timeout time.Duration) *Engine {
	return NewEngine(f, cache.NewSeriesCache(0), 7, timeout, zap.NewNop())
}

func TestRefresh_FailureLeavesSymbolAbsent(t *testing.T) {
	boom := &collector.FetchError{Op: "fetch series", Symbol: "B", Kind: collector.KindTransport, Err: errors.New("boom")}
	f := &collector.MockFetcher{
		Series: map[model.Symbol]model.TimeSeries{
			"A": seriesOf(10, 9),
			"C": seriesOf(30, 29),
		},
		Fail: map[model.Symbol]error{"B": boom},
	}
	e := newEngine(f, 0)

	var mu sync.Mutex
	var hooked []model.Symbol
	e.OnFailure = func(symbol model.Symbol, err error) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, symbol)
	}

	res := e.Refresh(context.Background(), []model.Symbol{"A", "B", "C"})
	require.Len(t, res.Series, 2)
	assert.Contains(t, res.Series, model.Symbol("A"))
	assert.Contains(t, res.Series, model.Symbol("C"))
	assert.NotContains(t, res.Series, model.Symbol("B"))
	require.Contains(t, res.Failures, model.Symbol("B"))
	assert.ErrorIs(t, res.Failures["B"], collector.ErrTransport)
	assert.Equal(t, []model.Symbol{"B"}, hooked)
}

func TestRefresh_IssuesOneFetchPerResolvedSymbol(t *testing.T) {
	f := &collector.MockFetcher{Series: map[model.Symbol]model.TimeSeries{"A": seriesOf(1, 2)}}
	e := newEngine(f, 0)

	e.Refresh(context.Background(), []model.Symbol{"A"})
	res := e.Refresh(context.Background(), []model.Symbol{"A"})

	assert.Equal(t, 1, f.Calls("A"))
	assert.Empty(t, res.Fetched)
	assert.Contains(t, res.Series, model.Symbol("A"))
}

func TestRefresh_FailedSymbolIsRetriedNextCall(t *testing.T) {
	f := &collector.MockFetcher{Fail: map[model.Symbol]error{"A": errors.New("down")}}
	e := newEngine(f, 0)

	e.Refresh(context.Background(), []model.Symbol{"A"})
	e.Refresh(context.Background(), []model.Symbol{"A"})
	assert.Equal(t, 2, f.Calls("A"))
}

func TestRefresh_DuplicateSymbolsFetchOnce(t *testing.T) {
	f := &collector.MockFetcher{}
	e := newEngine(f, 0)

	res := e.Refresh(context.Background(), []model.Symbol{"A", "A", "", "A"})
	assert.Equal(t, 1, f.Calls("A"))
	assert.Len(t, res.Series, 1)
}

func TestRefresh_StalledFetchTimesOut(t *testing.T) {
	stall := make(chan struct{})
	defer close(stall)
	f := &collector.MockFetcher{
		Series: map[model.Symbol]model.TimeSeries{"A": seriesOf(1), "C": seriesOf(3)},
		Block:  map[model.Symbol]chan struct{}{"B": stall},
	}
	e := newEngine(f, 50*time.Millisecond)

	done := make(chan *RefreshResult, 1)
	go func() { done <- e.Refresh(context.Background(), []model.Symbol{"A", "B", "C"}) }()

	select {
	case res := <-done:
		assert.Len(t, res.Series, 2)
		assert.ErrorIs(t, res.Failures["B"], context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not complete after per-request timeout")
	}
}

func TestRefresh_CancelledContextSettlesJoin(t *testing.T) {
	stall := make(chan struct{})
	defer close(stall)
	f := &collector.MockFetcher{Block: map[model.Symbol]chan struct{}{"A": stall}}
	e := newEngine(f, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *RefreshResult, 1)
	go func() { done <- e.Refresh(ctx, []model.Symbol{"A"}) }()
	cancel()

	select {
	case res := <-done:
		assert.Empty(t, res.Series)
		assert.Contains(t, res.Failures, model.Symbol("A"))
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not complete after cancel")
	}
}

func TestEngine_EvictRefetches(t *testing.T) {
	f := &collector.MockFetcher{}
	e := newEngine(f, 0)

	e.Refresh(context.Background(), []model.Symbol{"A", "B"})
	e.Evict("A")
	res := e.Refresh(context.Background(), []model.Symbol{"A", "B"})

	assert.Equal(t, 2, f.Calls("A"))
	assert.Equal(t, 1, f.Calls("B"))
	assert.Equal(t, []model.Symbol{"A"}, res.Fetched)

	e.Invalidate()
	e.Refresh(context.Background(), []model.Symbol{"B"})
	assert.Equal(t, 2, f.Calls("B"))
}

func TestEngine_SeriesUsesCache(t *testing.T) {
	f := &collector.MockFetcher{Series: map[model.Symbol]model.TimeSeries{"A": seriesOf(5)}}
	e := newEngine(f, 0)

	s, err := e.Series(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 5.0, s[0].Close)
	_, err = e.Series(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls("A"))
}

func TestRefresh_EvictDuringFetchIsNotUndone(t *testing.T) {
	release := make(chan struct{})
	f := &collector.MockFetcher{Block: map[model.Symbol]chan struct{}{"X": release}}
	e := newEngine(f, 0)

	done := make(chan *RefreshResult, 1)
	go func() { done <- e.Refresh(context.Background(), []model.Symbol{"X"}) }()
	require.Eventually(t, func() bool { return f.Calls("X") == 1 }, time.Second, 5*time.Millisecond)

	e.Evict("X")
	close(release)
	res := <-done

	assert.NotContains(t, res.Series, model.Symbol("X"))
	_, cached := e.Cache.Get("X")
	assert.False(t, cached)

	f.Block = nil
	res = e.Refresh(context.Background(), []model.Symbol{"X"})
	assert.Equal(t, 2, f.Calls("X"), "re-added symbol must be fetched again")
	assert.Contains(t, res.Series, model.Symbol("X"))
}

func TestRefresh_InvalidateDuringFetchIsNotUndone(t *testing.T) {
	release := make(chan struct{})
	f := &collector.MockFetcher{Block: map[model.Symbol]chan struct{}{"X": release}}
	e := newEngine(f, 0)

	done := make(chan *RefreshResult, 1)
	go func() { done <- e.Refresh(context.Background(), []model.Symbol{"X"}) }()
	require.Eventually(t, func() bool { return f.Calls("X") == 1 }, time.Second, 5*time.Millisecond)

	e.Invalidate()
	close(release)
	<-done
	assert.Equal(t, 0, e.Cache.Len())
}

func TestEngine_LookupDoesNotCache(t *testing.T) {
	f := &collector.MockFetcher{Series: map[model.Symbol]model.TimeSeries{"A": seriesOf(5)}}
	e := newEngine(f, 0)

	s, err := e.Lookup(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 5.0, s[0].Close)
	_, cached := e.Cache.Get("A")
	assert.False(t, cached)

	_, err = e.Series(context.Background(), "A")
	require.NoError(t, err)
	_, err = e.Lookup(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls("A"), "Lookup reuses a cached series")
}
