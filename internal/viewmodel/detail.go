package viewmodel

import (
	"Bolsa/internal/calculator"
	"Bolsa/internal/model"
)

// BuildDetail assembles the single-symbol view. metrics may be nil, in which
// case no metric items are produced.
func (a Assembler) BuildDetail(symbol model.Symbol, companyName string, series model.TimeSeries,
	metrics *model.FinancialMetrics, news []model.NewsStory) *model.StockDetail {
	if companyName == "" {
		companyName = PlaceholderCompanyName
	}
	change := calculator.ComputeChangeIn(series, a.loc())
	return &model.StockDetail{
		Symbol:      symbol,
		CompanyName: companyName,
		LatestPrice: calculator.FormatLatestPrice(series),
		Change:      change,
		Direction:   calculator.DirectionOf(change),
		Chart:       calculator.Sparkline(series),
		Metrics:     MetricItems(metrics),
		News:        news,
	}
}

// MetricItems lists the detail-view metrics in display order.
func MetricItems(m *model.FinancialMetrics) []model.MetricItem {
	if m == nil {
		return nil
	}
	return []model.MetricItem{
		{Name: "52W High", Value: calculator.FormatNumber(m.FiftyTwoWeekHigh)},
		{Name: "52W Low", Value: calculator.FormatNumber(m.FiftyTwoWeekLow)},
		{Name: "52W Return", Value: calculator.FormatNumber(m.FiftyTwoWeekReturn)},
		{Name: "Beta", Value: calculator.FormatNumber(m.Beta)},
		{Name: "10D Vol.", Value: calculator.FormatNumber(m.TenDayAvgVolume)},
	}
}
