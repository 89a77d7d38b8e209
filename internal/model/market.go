package model

import (
	"strings"
	"time"
)

// Symbol is an upper-case ticker.
type Symbol string

// NewSymbol normalizes raw user or API input into a Symbol.
func NewSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string { return string(s) }

// Candle is a single open/high/low/close sample. The symbol it belongs to is
// the key of the map holding its series, not a field.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// TimeSeries holds candles for one symbol, most recent first.
type TimeSeries []Candle

// SymbolSeriesMap maps each resolved symbol to its series.
type SymbolSeriesMap map[Symbol]TimeSeries

// Symbols returns the keys of the map in no particular order.
func (m SymbolSeriesMap) Symbols() []Symbol {
	out := make([]Symbol, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	return out
}

// FinancialMetrics is the subset of the metric endpoint shown on the detail view.
type FinancialMetrics struct {
	FiftyTwoWeekHigh    float64
	FiftyTwoWeekLow     float64
	FiftyTwoWeekLowDate string
	FiftyTwoWeekReturn  float64
	Beta                float64
	TenDayAvgVolume     float64
}
