package search

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Bolsa/internal/collector"
	"Bolsa/internal/model"
)

// fakeClock schedules callbacks on a virtual millisecond timeline.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, fn: f}
	c.pending = append(c.pending, t)
	return t
}

// advance moves the clock to to, synchronously running due callbacks, and
// returns the virtual times at which callbacks fired.
func (c *fakeClock) advance(to time.Duration) []time.Duration {
	c.mu.Lock()
	c.now = to
	var due []*fakeTimer
	for _, t := range c.pending {
		if !t.stopped && !t.fired && t.at <= to {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	var fired []time.Duration
	for _, t := range due {
		t.fn()
		fired = append(fired, t.at)
	}
	return fired
}

func TestDebouncer_OnlyLastKeystrokeFires(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(300 * time.Millisecond)
	d.after = clock.afterFunc

	var calls []string
	keystrokes := []struct {
		at    time.Duration
		query string
	}{
		{0, "A"},
		{100 * time.Millisecond, "AP"},
		{150 * time.Millisecond, "APP"},
		{320 * time.Millisecond, "APPL"},
	}
	for _, k := range keystrokes {
		require.Empty(t, clock.advance(k.at), "nothing may fire before the quiet window ends")
		q := k.query
		d.Trigger(func() { calls = append(calls, q) })
	}

	fired := clock.advance(2 * time.Second)
	assert.Equal(t, []string{"APPL"}, calls)
	assert.Equal(t, []time.Duration{620 * time.Millisecond}, fired)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(300 * time.Millisecond)
	d.after = clock.afterFunc

	called := false
	d.Trigger(func() { called = true })
	d.Stop()
	d.Trigger(func() { called = true })
	clock.advance(time.Second)
	assert.False(t, called)
}

func TestSearcher_DebouncesIntoOneRequest(t *testing.T) {
	clock := &fakeClock{}
	source := &collector.MockFetcher{Results: []model.SearchResult{
		{Symbol: "AAPL", Description: "APPLE INC"},
		{Symbol: "MSFT", Description: "MICROSOFT CORP"},
	}}

	var got []model.SearchResult
	var gotQuery string
	s := NewSearcher(context.Background(), source, 300*time.Millisecond, func(q string, r []model.SearchResult) {
		gotQuery, got = q, r
	}, nil)
	s.debouncer.after = clock.afterFunc

	s.Type("a")
	clock.advance(100 * time.Millisecond)
	s.Type("  ")
	s.Type("ap")
	clock.advance(150 * time.Millisecond)
	s.Type("appl ")
	clock.advance(time.Second)

	assert.Equal(t, []string{"appl"}, source.Queries())
	assert.Equal(t, "appl", gotQuery)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)
}

// gatedSource blocks selected queries until released, ignoring cancellation.
type gatedSource struct {
	gates map[string]chan struct{}
}

func (g *gatedSource) SearchSymbols(_ context.Context, query string) ([]model.SearchResult, error) {
	if gate, ok := g.gates[query]; ok {
		<-gate
	}
	return []model.SearchResult{{Symbol: query}}, nil
}

func TestSearcher_DropsStaleResponse(t *testing.T) {
	gate := make(chan struct{})
	source := &gatedSource{gates: map[string]chan struct{}{"a": gate}}

	delivered := make(chan string, 4)
	stale := make(chan string, 4)
	s := NewSearcher(context.Background(), source, time.Millisecond, func(q string, _ []model.SearchResult) {
		delivered <- q
	}, nil)
	s.OnStale = func(q string) { stale <- q }

	go s.run("a") // in flight, blocked
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.generation == 1
	}, time.Second, 5*time.Millisecond)

	s.run("ab")
	assert.Equal(t, "ab", <-delivered)

	close(gate)
	select {
	case q := <-stale:
		assert.Equal(t, "a", q)
	case <-time.After(time.Second):
		t.Fatal("stale response was not discarded")
	}
	select {
	case q := <-delivered:
		t.Fatalf("stale response %q was delivered", q)
	default:
	}
}

func TestSearcher_FailureDeliversEmptyResults(t *testing.T) {
	source := &failingSource{}
	var got []model.SearchResult
	called := false
	s := NewSearcher(context.Background(), source, time.Millisecond, func(_ string, r []model.SearchResult) {
		called = true
		got = r
	}, nil)

	s.run("x")
	assert.True(t, called)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type failingSource struct{}

func (failingSource) SearchSymbols(context.Context, string) ([]model.SearchResult, error) {
	return nil, &collector.FetchError{Op: "search", Kind: collector.KindTransport}
}
