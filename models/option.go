// models/option.go
// @tag models, data_structure, core
package models

// OptionType identifies the side of an option contract.
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// RawTicker is the untrusted ticker payload returned by the exchange.
// Numeric fields arrive either as JSON numbers or as strings and may be
// missing or malformed, so they are decoded loosely and coerced later.
type RawTicker struct {
	Symbol    string      `json:"symbol"`
	MarkPrice interface{} `json:"mark_price"`
	SpotPrice interface{} `json:"spot_price"`
	OI        interface{} `json:"oi"`
	Volume    interface{} `json:"volume"`
	Quotes    *RawQuotes  `json:"quotes"`
	Greeks    *RawGreeks  `json:"greeks"`
}

// RawQuotes carries the bid/ask block of a raw ticker.
type RawQuotes struct {
	BestBid interface{} `json:"best_bid"`
	BestAsk interface{} `json:"best_ask"`
	BidIV   interface{} `json:"bid_iv"`
	AskIV   interface{} `json:"ask_iv"`
}

// RawGreeks carries the greeks block of a raw ticker. Greeks are passed
// through to the dashboard, never derived here.
type RawGreeks struct {
	Delta interface{} `json:"delta"`
	Gamma interface{} `json:"gamma"`
	Theta interface{} `json:"theta"`
	Vega  interface{} `json:"vega"`
}

// ParsedSymbol is the structured form of an option instrument symbol,
// format {C|P}-{ASSET}-{STRIKE}-{DDMMYY}, e.g. C-BTC-95200-200225.
type ParsedSymbol struct {
	OptionType OptionType
	Asset      string
	Strike     float64
	ExpiryDate string // YYYY-MM-DD
	ExpiryMs   int64  // settlement at 08:00 UTC
	ExpiryRaw  string
}

// OptionRecord is the canonical, validated unit the rest of the pipeline
// consumes. Nullable numerics are pointers: nil means "absent", a zero
// value is a real zero.
type OptionRecord struct {
	Symbol       string     `json:"symbol"`
	Asset        string     `json:"asset"`
	OptionType   OptionType `json:"option_type"`
	Strike       float64    `json:"strike"`
	ExpiryDate   string     `json:"expiry_date"`
	ExpiryMs     int64      `json:"expiry_ms"`
	ExpiryRaw    string     `json:"expiry_raw"`
	MarkPrice    *float64   `json:"mark_price"`
	SpotPrice    *float64   `json:"spot_price"`
	BidPrice     *float64   `json:"bid_price"`
	AskPrice     *float64   `json:"ask_price"`
	BidIV        *float64   `json:"bid_iv"`
	AskIV        *float64   `json:"ask_iv"`
	OpenInterest *float64   `json:"open_interest"`
	Volume       *float64   `json:"volume"`
	Delta        *float64   `json:"delta"`
	Gamma        *float64   `json:"gamma"`
	Theta        *float64   `json:"theta"`
	Vega         *float64   `json:"vega"`
}

// ExpiryGroup is one expiry bucket of a chain, keyed by settlement
// timestamp. Groups are ordered soonest first.
type ExpiryGroup struct {
	ExpiryMs int64          `json:"expiry_ms"`
	Records  []OptionRecord `json:"records"`
}

// CandleResult is one slot of a candlestick prefetch batch. A nil Chart
// is the explicit "no data" marker for that instrument; it never fails
// the batch.
type CandleResult struct {
	Symbol     string     `json:"symbol"`
	OptionType OptionType `json:"option_type"`
	Chart      *ChartData `json:"chart"`
}

// ChartData is the parallel-array OHLCV payload of the chart history
// endpoint: t[i], o[i], h[i], l[i], c[i], v[i] form one candle, with t
// in Unix seconds.
type ChartData struct {
	Status     string    `json:"s,omitempty"`
	Timestamps []int64   `json:"t"`
	Opens      []float64 `json:"o"`
	Highs      []float64 `json:"h"`
	Lows       []float64 `json:"l"`
	Closes     []float64 `json:"c"`
	Volumes    []float64 `json:"v"`
}

// AssetSnapshot is the complete fetch result for one underlying asset.
// Snapshots are immutable once published; a later fetch replaces them
// wholesale.
type AssetSnapshot struct {
	Asset   string         `json:"asset"`
	Records []OptionRecord `json:"records"`
	Candles []CandleResult `json:"candles"`
}
