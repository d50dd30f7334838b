// internal/fetch/candles.go
// @tag fetch, candles, on_demand
package fetch

import (
	"context"
	"sync/atomic"
	"time"

	"optionflow/config"
	"optionflow/logger"
	"optionflow/models"
)

// CandleLoader serves the on-demand single-symbol candle view. Loads
// follow last-request-wins: issuing a new load invalidates any
// still-pending earlier one, whose result is discarded rather than
// merged when it eventually arrives.
type CandleLoader struct {
	api API
	cfg config.FetchConfig
	log *logger.Log
	seq atomic.Uint64
	now func() time.Time
}

// NewCandleLoader builds a loader sharing the orchestrator's API client
// and fetch settings.
func NewCandleLoader(api API, cfg config.FetchConfig) *CandleLoader {
	return &CandleLoader{
		api: api,
		cfg: cfg,
		log: logger.GetLogger(),
		now: time.Now,
	}
}

// Load fetches candle history for one instrument. The second return
// value is false when the result is stale, i.e. a later Load was issued
// while this one was in flight; stale results must be dropped by the
// caller. A fetch failure is not an error: it degrades to a result with
// a nil chart, the explicit "no data" marker.
func (l *CandleLoader) Load(ctx context.Context, symbol string, optionType models.OptionType) (models.CandleResult, bool) {
	id := l.seq.Add(1)

	toSec := l.now().Unix()
	fromSec := toSec - int64(l.cfg.LookbackHours)*3600

	result := models.CandleResult{Symbol: symbol, OptionType: optionType}
	chart, err := l.api.GetCandles(ctx, symbol, l.cfg.ResolutionMinutes, fromSec, toSec)
	if err != nil {
		l.log.WithComponent("candle_loader").WithError(err).WithFields(logger.Fields{
			"symbol": symbol,
		}).Debug("on-demand candle fetch failed; marking no data")
	} else {
		result.Chart = chart
	}

	if l.seq.Load() != id {
		return models.CandleResult{}, false
	}
	return result, true
}
