package chain

import (
	"testing"

	"optionflow/models"
)

func TestBuildStrikeSeriesBothSides(t *testing.T) {
	rows := []models.OptionRecord{
		{OptionType: models.OptionTypeCall, Strike: 110, MarkPrice: fptr(5)},
		{OptionType: models.OptionTypePut, Strike: 100, MarkPrice: fptr(8)},
		{OptionType: models.OptionTypeCall, Strike: 100, MarkPrice: fptr(12)},
		{OptionType: models.OptionTypeCall, Strike: 120, MarkPrice: nil},
	}

	series := BuildStrikeSeries(rows, "mark_price")
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	call, put := series[0], series[1]
	if call.Name != "CE (Call)" || put.Name != "PE (Put)" {
		t.Errorf("series names = %q, %q", call.Name, put.Name)
	}
	if len(call.Points) != 2 {
		t.Fatalf("call points = %d, want 2 (nil metric rows dropped)", len(call.Points))
	}
	if call.Points[0][0] != 100 || call.Points[1][0] != 110 {
		t.Errorf("call strikes not ascending: %v", call.Points)
	}
	if call.Points[0][1] != 12 {
		t.Errorf("call point value = %v, want 12", call.Points[0][1])
	}
	if len(put.Points) != 1 || put.Points[0] != (models.StrikePoint{100, 8}) {
		t.Errorf("put points = %v, want [[100 8]]", put.Points)
	}
}

func TestBuildStrikeSeriesOmitsEmptySide(t *testing.T) {
	rows := []models.OptionRecord{
		{OptionType: models.OptionTypeCall, Strike: 100, Delta: fptr(0.4)},
		{OptionType: models.OptionTypePut, Strike: 100, Delta: nil},
	}
	series := BuildStrikeSeries(rows, "delta")
	if len(series) != 1 {
		t.Fatalf("expected only the call series, got %d series", len(series))
	}
	if series[0].Name != "CE (Call)" {
		t.Errorf("series name = %q, want CE (Call)", series[0].Name)
	}
}

func TestBuildStrikeSeriesUnknownMetric(t *testing.T) {
	rows := []models.OptionRecord{
		{OptionType: models.OptionTypeCall, Strike: 100, MarkPrice: fptr(5)},
	}
	if series := BuildStrikeSeries(rows, "rho"); series != nil {
		t.Fatalf("expected nil for unknown metric, got %v", series)
	}
	if ValidMetric("rho") {
		t.Errorf("rho should not be a valid metric")
	}
	if !ValidMetric("open_interest") {
		t.Errorf("open_interest should be a valid metric")
	}
}

func TestBuildCandlestickSeriesSingleCandle(t *testing.T) {
	chart := &models.ChartData{
		Timestamps: []int64{1000},
		Opens:      []float64{10},
		Highs:      []float64{12},
		Lows:       []float64{9},
		Closes:     []float64{11},
		Volumes:    []float64{5},
	}
	series := BuildCandlestickSeries(chart)
	if series == nil {
		t.Fatalf("expected a series for a one-candle chart")
	}
	if len(series.OHLC) != 1 || len(series.Volume) != 1 {
		t.Fatalf("lengths = %d/%d, want 1/1", len(series.OHLC), len(series.Volume))
	}
	if series.OHLC[0] != (models.OHLCPoint{1000000, 10, 12, 9, 11}) {
		t.Errorf("ohlc point = %v, want [1000000 10 12 9 11]", series.OHLC[0])
	}
	if series.Volume[0] != (models.VolumePoint{1000000, 5}) {
		t.Errorf("volume point = %v, want [1000000 5]", series.Volume[0])
	}
}

func TestBuildCandlestickSeriesNoData(t *testing.T) {
	if s := BuildCandlestickSeries(nil); s != nil {
		t.Errorf("expected nil for a nil chart")
	}
	if s := BuildCandlestickSeries(&models.ChartData{}); s != nil {
		t.Errorf("expected nil for an empty timestamp array")
	}
}

func TestBuildCandlestickSeriesRaggedArrays(t *testing.T) {
	chart := &models.ChartData{
		Timestamps: []int64{1000, 2000},
		Opens:      []float64{10, 20},
		Highs:      []float64{12},
		Lows:       []float64{9, 19},
		Closes:     []float64{11, 21},
	}
	series := BuildCandlestickSeries(chart)
	if series == nil {
		t.Fatalf("expected a series")
	}
	if series.OHLC[1] != (models.OHLCPoint{2000000, 20, 0, 19, 21}) {
		t.Errorf("ohlc point = %v, want missing high filled with 0", series.OHLC[1])
	}
	if series.Volume[0] != (models.VolumePoint{1000000, 0}) {
		t.Errorf("volume point = %v, want volume defaulted to 0", series.Volume[0])
	}
}
