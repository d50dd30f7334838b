// internal/chain/series.go
// @tag chain, chart_series
package chain

import (
	"sort"

	"optionflow/models"
)

// Series names match the labels the dashboard UI shows for the two
// sides of a chain.
const (
	callSeriesName = "CE (Call)"
	putSeriesName  = "PE (Put)"
)

// metricAccessors maps a selectable metric name to the record field it
// reads. The metric value of a record may be nil; such rows are dropped
// from the series rather than plotted as zero.
var metricAccessors = map[string]func(models.OptionRecord) *float64{
	"mark_price":    func(r models.OptionRecord) *float64 { return r.MarkPrice },
	"bid_price":     func(r models.OptionRecord) *float64 { return r.BidPrice },
	"ask_price":     func(r models.OptionRecord) *float64 { return r.AskPrice },
	"bid_iv":        func(r models.OptionRecord) *float64 { return r.BidIV },
	"ask_iv":        func(r models.OptionRecord) *float64 { return r.AskIV },
	"open_interest": func(r models.OptionRecord) *float64 { return r.OpenInterest },
	"volume":        func(r models.OptionRecord) *float64 { return r.Volume },
	"delta":         func(r models.OptionRecord) *float64 { return r.Delta },
	"gamma":         func(r models.OptionRecord) *float64 { return r.Gamma },
	"theta":         func(r models.OptionRecord) *float64 { return r.Theta },
	"vega":          func(r models.OptionRecord) *float64 { return r.Vega },
}

// ValidMetric reports whether name selects a chartable record field.
func ValidMetric(name string) bool {
	_, ok := metricAccessors[name]
	return ok
}

// BuildStrikeSeries turns chain rows into at most two strike→metric
// lines, one per option type. Rows whose metric is absent are dropped,
// each side is sorted ascending by strike, and a side with no rows is
// omitted entirely rather than emitted empty. An unknown metric yields
// no series.
func BuildStrikeSeries(rows []models.OptionRecord, metric string) []models.StrikeSeries {
	accessor, ok := metricAccessors[metric]
	if !ok {
		return nil
	}

	build := func(optionType models.OptionType, name string) (models.StrikeSeries, bool) {
		picked := make([]models.OptionRecord, 0, len(rows))
		for _, r := range rows {
			if r.OptionType == optionType && accessor(r) != nil {
				picked = append(picked, r)
			}
		}
		if len(picked) == 0 {
			return models.StrikeSeries{}, false
		}
		sort.SliceStable(picked, func(a, b int) bool {
			return picked[a].Strike < picked[b].Strike
		})
		points := make([]models.StrikePoint, len(picked))
		for i, r := range picked {
			points[i] = models.StrikePoint{r.Strike, *accessor(r)}
		}
		return models.StrikeSeries{Name: name, Points: points}, true
	}

	series := make([]models.StrikeSeries, 0, 2)
	if s, ok := build(models.OptionTypeCall, callSeriesName); ok {
		series = append(series, s)
	}
	if s, ok := build(models.OptionTypePut, putSeriesName); ok {
		series = append(series, s)
	}
	return series
}

// BuildCandlestickSeries zips parallel OHLCV arrays into chart tuples,
// converting second timestamps to milliseconds. A missing or empty time
// array yields nil, the single "no data" signal the presentation layer
// consumes. Entries absent from a value array default to 0.
func BuildCandlestickSeries(chart *models.ChartData) *models.CandleSeries {
	if chart == nil || len(chart.Timestamps) == 0 {
		return nil
	}

	at := func(vals []float64, i int) float64 {
		if i < len(vals) {
			return vals[i]
		}
		return 0
	}

	series := &models.CandleSeries{
		OHLC:   make([]models.OHLCPoint, len(chart.Timestamps)),
		Volume: make([]models.VolumePoint, len(chart.Timestamps)),
	}
	for i, ts := range chart.Timestamps {
		ms := float64(ts * 1000)
		series.OHLC[i] = models.OHLCPoint{
			ms,
			at(chart.Opens, i),
			at(chart.Highs, i),
			at(chart.Lows, i),
			at(chart.Closes, i),
		}
		series.Volume[i] = models.VolumePoint{ms, at(chart.Volumes, i)}
	}
	return series
}
