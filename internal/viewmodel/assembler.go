// Package viewmodel turns resolved series into presentation records.
package viewmodel

import (
	"time"

	"Bolsa/internal/calculator"
	"Bolsa/internal/model"
)

// PlaceholderCompanyName is shown when no display name is stored.
const PlaceholderCompanyName = "Company"

// NameResolver looks up display names. watchlist.Store satisfies it.
type NameResolver interface {
	CompanyName(symbol model.Symbol) (string, bool)
}

// NameMap is a NameResolver backed by a plain map.
type NameMap map[model.Symbol]string

func (m NameMap) CompanyName(symbol model.Symbol) (string, bool) {
	n, ok := m[symbol]
	return n, ok
}

// Assembler builds view records. Loc sets calendar-day boundaries for the
// change calculation; nil means time.Local.
type Assembler struct {
	Loc *time.Location
}

// Assemble builds one entry per symbol in series. Order is unspecified;
// symbols without a resolved series never appear.
func (a Assembler) Assemble(series model.SymbolSeriesMap, names NameResolver) []model.WatchlistEntry {
	entries := make([]model.WatchlistEntry, 0, len(series))
	for symbol, s := range series {
		change := calculator.ComputeChangeIn(s, a.loc())
		entries = append(entries, model.WatchlistEntry{
			Symbol:           symbol,
			CompanyName:      companyName(names, symbol),
			LatestPrice:      calculator.FormatLatestPrice(s),
			Change:           change,
			ChangePercentage: calculator.FormatPercentage(change),
			Direction:        calculator.DirectionOf(change),
			Sparkline:        calculator.Sparkline(s),
		})
	}
	return entries
}

// Assemble uses the default Assembler.
func Assemble(series model.SymbolSeriesMap, names NameResolver) []model.WatchlistEntry {
	return Assembler{}.Assemble(series, names)
}

func (a Assembler) loc() *time.Location {
	if a.Loc == nil {
		return time.Local
	}
	return a.Loc
}

func companyName(names NameResolver, symbol model.Symbol) string {
	if names == nil {
		return PlaceholderCompanyName
	}
	if n, ok := names.CompanyName(symbol); ok && n != "" {
		return n
	}
	return PlaceholderCompanyName
}
