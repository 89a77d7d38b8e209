package calculator

import (
	"time"

	"Bolsa/internal/model"
)

// ComputeChange returns the fractional change between the latest close and
// the close of the most recent candle from an earlier calendar day, using the
// local time zone for day boundaries.
func ComputeChange(series model.TimeSeries) float64 {
	return ComputeChangeIn(series, time.Local)
}

// ComputeChangeIn is ComputeChange with an explicit location for day boundaries.
// It returns 0 when the series is empty, covers a single day, or the latest
// close is zero; callers cannot tell those apart from a flat day.
func ComputeChangeIn(series model.TimeSeries, loc *time.Location) float64 {
	if len(series) == 0 {
		return 0
	}
	latest := series[0]
	if latest.Close == 0 {
		return 0
	}
	for _, c := range series[1:] {
		if !sameDay(c.Time, latest.Time, loc) {
			return 1 - (c.Close / latest.Close)
		}
	}
	return 0
}

// DirectionOf maps a change to its display direction. Zero counts as up.
func DirectionOf(change float64) model.Direction {
	if change < 0 {
		return model.DirectionDown
	}
	return model.DirectionUp
}

// LatestClose returns the close of the most recent candle.
func LatestClose(series model.TimeSeries) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[0].Close, true
}

// Sparkline returns closes oldest first for charting.
func Sparkline(series model.TimeSeries) []float64 {
	closes := make([]float64, len(series))
	for i, c := range series {
		closes[len(series)-1-i] = c.Close
	}
	return closes
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
