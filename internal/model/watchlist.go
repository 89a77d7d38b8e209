package model

// Direction is the sign of a price change for display purposes.
type Direction string

const (
	DirectionUp   Direction = "UP" // includes no change
	DirectionDown Direction = "DOWN"
)

// WatchlistEntry is the presentation record for one watchlist row.
// Entries are rebuilt on every refresh and never patched in place.
type WatchlistEntry struct {
	Symbol           Symbol
	CompanyName      string
	LatestPrice      string
	Change           float64
	ChangePercentage string
	Direction        Direction
	Sparkline        []float64
}

// MetricItem is a labelled value on the stock detail view.
type MetricItem struct {
	Name  string
	Value string
}

// StockDetail is the presentation record for a single symbol.
type StockDetail struct {
	Symbol      Symbol
	CompanyName string
	LatestPrice string
	Change      float64
	Direction   Direction
	Chart       []float64
	Metrics     []MetricItem
	News        []NewsStory
}
