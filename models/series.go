// models/series.go
// @tag models, chart_series
package models

// StrikePoint marshals as a [strike, value] tuple for the strike chart.
type StrikePoint [2]float64

// OHLCPoint marshals as a [timeMs, open, high, low, close] tuple.
type OHLCPoint [5]float64

// VolumePoint marshals as a [timeMs, volume] tuple.
type VolumePoint [2]float64

// StrikeSeries is one line on the strike chart, either the call or the
// put side of a chain, sorted ascending by strike.
type StrikeSeries struct {
	Name   string        `json:"name"`
	Points []StrikePoint `json:"points"`
}

// CandleSeries is the chart-ready form of one instrument's OHLCV
// history. Times are milliseconds.
type CandleSeries struct {
	OHLC   []OHLCPoint   `json:"ohlc"`
	Volume []VolumePoint `json:"volume"`
}
