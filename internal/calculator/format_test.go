package calculator

import (
	"testing"

	"Bolsa/internal/model"
)

func TestFormatLatestPrice(t *testing.T) {
	if got := FormatLatestPrice(nil); got != "" {
		t.Errorf("expected empty string for empty series, got %q", got)
	}
	series := model.TimeSeries{{Time: day(2, 10), Close: 1234.567}}
	if got := FormatLatestPrice(series); got != "1,234.57" {
		t.Errorf("expected 1,234.57, got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{120, "120"},
		{118.5, "118.5"},
		{0.004, "0"},
		{1000000.1, "1,000,000.1"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1 - 100.0/120.0, "16.67%"},
		{0, "0%"},
		{-0.05, "-5%"},
		{-0.000001, "0%"},
	}
	for _, tt := range tests {
		if got := FormatPercentage(tt.in); got != tt.want {
			t.Errorf("FormatPercentage(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
