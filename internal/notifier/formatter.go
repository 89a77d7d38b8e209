package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"Bolsa/internal/calculator"
	"Bolsa/internal/model"
)

const sparkBars = "▁▂▃▄▅▆▇█"

// FormatWatchlist renders watchlist entries as a table, sorted by symbol.
func FormatWatchlist(entries []model.WatchlistEntry, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 Watchlist | %s\n\n", at.Format("2006-01-02 15:04")))
	if len(entries) == 0 {
		b.WriteString("(no data)\n")
		return b.String()
	}

	sorted := append([]model.WatchlistEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	for _, e := range sorted {
		b.WriteString(fmt.Sprintf("%-6s %-24s %12s %s %8s  %s\n",
			e.Symbol, truncate(e.CompanyName, 24), e.LatestPrice,
			arrow(e.Direction), e.ChangePercentage, Sparkline(e.Sparkline)))
	}
	return b.String()
}

// FormatDetail renders the single-symbol view.
func FormatDetail(d *model.StockDetail) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 %s | %s\n\n", d.Symbol, d.CompanyName))
	b.WriteString(fmt.Sprintf("Price: %s %s %s\n", d.LatestPrice, arrow(d.Direction), calculator.FormatPercentage(d.Change)))
	if len(d.Chart) > 0 {
		b.WriteString(fmt.Sprintf("Chart: %s\n", Sparkline(d.Chart)))
	}

	if len(d.Metrics) > 0 {
		b.WriteString("\n📈 Metrics:\n")
		for _, m := range d.Metrics {
			b.WriteString(fmt.Sprintf("  %-10s %s\n", m.Name, m.Value))
		}
	}
	if len(d.News) > 0 {
		b.WriteString("\n📰 News:\n")
		b.WriteString(formatStories(d.News))
	}
	return b.String()
}

// FormatNews renders headlines for a scope.
func FormatNews(scope model.NewsScope, stories []model.NewsStory) string {
	var b strings.Builder
	if scope.IsTopStories() {
		b.WriteString("📰 Top stories\n\n")
	} else {
		b.WriteString(fmt.Sprintf("📰 %s news\n\n", scope.Symbol))
	}
	if len(stories) == 0 {
		b.WriteString("(no stories)\n")
		return b.String()
	}
	b.WriteString(formatStories(stories))
	return b.String()
}

// FormatSearchResults renders symbol lookup results.
func FormatSearchResults(query string, results []model.SearchResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 \"%s\"\n\n", query))
	if len(results) == 0 {
		b.WriteString("(no matches)\n")
		return b.String()
	}
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%-10s %s\n", r.DisplaySymbol, r.Description))
	}
	return b.String()
}

// Sparkline draws values as block characters scaled between their min and max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	bars := []rune(sparkBars)
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(bars)-1))
		}
		out[i] = bars[idx]
	}
	return string(out)
}

func formatStories(stories []model.NewsStory) string {
	var b strings.Builder
	for _, s := range stories {
		b.WriteString(fmt.Sprintf("• %s\n", s.Headline))
		meta := s.Source
		if !s.Time.IsZero() {
			meta = fmt.Sprintf("%s, %s", s.Source, s.Time.Format("Jan 2 15:04"))
		}
		if meta != "" {
			b.WriteString(fmt.Sprintf("  %s\n", meta))
		}
		if s.URL != "" {
			b.WriteString(fmt.Sprintf("  %s\n", s.URL))
		}
	}
	return b.String()
}

func arrow(d model.Direction) string {
	if d == model.DirectionDown {
		return "▼"
	}
	return "▲"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
