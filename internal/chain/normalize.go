// internal/chain/normalize.go
// @tag chain, normalizer
package chain

import (
	"encoding/json"
	"math"
	"strconv"

	"optionflow/models"
)

// coerceFloat converts a loosely-decoded JSON value to a float pointer.
// Strings and numbers that parse to a finite float are kept, everything
// else becomes nil. Zero is a valid value; nil means "absent".
func coerceFloat(v interface{}) *float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// normalizeTicker maps one raw ticker into a canonical record. Tickers
// whose symbol does not parse produce no record.
func normalizeTicker(t models.RawTicker) (models.OptionRecord, bool) {
	sym, ok := ParseSymbol(t.Symbol)
	if !ok {
		return models.OptionRecord{}, false
	}

	rec := models.OptionRecord{
		Symbol:       t.Symbol,
		Asset:        sym.Asset,
		OptionType:   sym.OptionType,
		Strike:       sym.Strike,
		ExpiryDate:   sym.ExpiryDate,
		ExpiryMs:     sym.ExpiryMs,
		ExpiryRaw:    sym.ExpiryRaw,
		MarkPrice:    coerceFloat(t.MarkPrice),
		SpotPrice:    coerceFloat(t.SpotPrice),
		OpenInterest: coerceFloat(t.OI),
		Volume:       coerceFloat(t.Volume),
	}
	if q := t.Quotes; q != nil {
		rec.BidPrice = coerceFloat(q.BestBid)
		rec.AskPrice = coerceFloat(q.BestAsk)
		rec.BidIV = coerceFloat(q.BidIV)
		rec.AskIV = coerceFloat(q.AskIV)
	}
	if g := t.Greeks; g != nil {
		rec.Delta = coerceFloat(g.Delta)
		rec.Gamma = coerceFloat(g.Gamma)
		rec.Theta = coerceFloat(g.Theta)
		rec.Vega = coerceFloat(g.Vega)
	}
	return rec, true
}

// Normalize maps a batch of raw tickers into canonical records,
// silently dropping unparseable symbols and records whose open interest
// (absent counts as 0) is below minOpenInterest. A record exactly at
// the threshold is kept. Input order is preserved and duplicates are
// not collapsed.
func Normalize(tickers []models.RawTicker, minOpenInterest float64) []models.OptionRecord {
	records := make([]models.OptionRecord, 0, len(tickers))
	for _, t := range tickers {
		rec, ok := normalizeTicker(t)
		if !ok {
			continue
		}
		oi := 0.0
		if rec.OpenInterest != nil {
			oi = *rec.OpenInterest
		}
		if oi < minOpenInterest {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// SpotPrice returns the spot price shared across a batch: the first
// record carrying one. The second return value is false when no record
// has a spot price.
func SpotPrice(records []models.OptionRecord) (float64, bool) {
	for _, r := range records {
		if r.SpotPrice != nil {
			return *r.SpotPrice, true
		}
	}
	return 0, false
}
