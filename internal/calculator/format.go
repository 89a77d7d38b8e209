package calculator

import (
	"math"

	"github.com/dustin/go-humanize"

	"Bolsa/internal/model"
)

// FormatLatestPrice renders the latest close with thousands separators and at
// most two fraction digits. An empty series renders as "".
func FormatLatestPrice(series model.TimeSeries) string {
	price, ok := LatestClose(series)
	if !ok {
		return ""
	}
	return FormatNumber(price)
}

// FormatNumber renders v with grouping and at most two fraction digits.
func FormatNumber(v float64) string {
	return humanize.CommafWithDigits(round2(v), 2)
}

// FormatPercentage renders a fractional change as a percentage, e.g. 0.1667 -> "16.67%".
func FormatPercentage(change float64) string {
	return humanize.FtoaWithDigits(round2(change*100), 2) + "%"
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
