// internal/fetch/fetcher.go
// @tag fetch, orchestrator
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"optionflow/config"
	"optionflow/internal/chain"
	"optionflow/internal/metrics"
	"optionflow/logger"
	"optionflow/models"
)

// API is the slice of the exchange client the orchestrator needs.
type API interface {
	GetOptionChain(ctx context.Context, asset string) ([]models.RawTicker, error)
	GetCandles(ctx context.Context, symbol string, resolutionMin int, fromSec, toSec int64) (*models.ChartData, error)
}

// Archiver persists the normalized records of one asset after a fetch.
// Archival is best effort; errors never affect the fetch result.
type Archiver interface {
	Archive(session, asset string, records []models.OptionRecord) error
}

// Fetcher runs fetch-all passes against the exchange and commits the
// results to the snapshot store. Assets are fetched sequentially; the
// candlestick prefetch inside one asset runs as a concurrent batch of
// independent slots.
type Fetcher struct {
	api      API
	store    *Store
	cfg      config.FetchConfig
	archiver Archiver
	log      *logger.Log
	now      func() time.Time
}

// NewFetcher wires an orchestrator. archiver may be nil.
func NewFetcher(api API, store *Store, cfg config.FetchConfig, archiver Archiver) *Fetcher {
	return &Fetcher{
		api:      api,
		store:    store,
		cfg:      cfg,
		archiver: archiver,
		log:      logger.GetLogger(),
		now:      time.Now,
	}
}

// Summary reports the outcome of one fetch-all run.
type Summary struct {
	Session    string         `json:"session"`
	Assets     []string       `json:"assets"`
	Records    map[string]int `json:"records"`
	Errors     []string       `json:"errors"`
	DurationMs float64        `json:"duration_ms"`
}

// FetchAll fetches the option chain (and, when enabled, the top-N
// candlestick prefetch) for every configured asset and replaces the
// store's snapshot map wholesale. A failing asset contributes one
// human-readable error string and does not block the others. The store
// is only updated once every asset has settled.
func (f *Fetcher) FetchAll(ctx context.Context) (Summary, error) {
	session := uuid.NewString()
	start := f.now()
	log := f.log.WithComponent("fetcher").WithFields(logger.Fields{"session": session})

	log.WithFields(logger.Fields{"assets": f.cfg.Assets}).Info("starting fetch run")

	results := make(map[string]*models.AssetSnapshot, len(f.cfg.Assets))
	var errs []string

	for _, asset := range f.cfg.Assets {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}

		snap, err := f.fetchAsset(ctx, asset)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", asset, err))
			metrics.Count("fetcher", "asset_fetch_errors", 1, logger.Fields{"asset": asset})
			log.WithError(err).WithFields(logger.Fields{"asset": asset}).Warn("asset fetch failed")
			continue
		}
		results[asset] = snap

		metrics.Count("fetcher", "records_fetched", float64(len(snap.Records)), logger.Fields{"asset": asset})
		if f.archiver != nil {
			if err := f.archiver.Archive(session, asset, snap.Records); err != nil {
				log.WithError(err).WithFields(logger.Fields{"asset": asset}).Warn("archive failed")
			}
		}
	}

	f.store.Replace(session, results, errs)

	elapsed := f.now().Sub(start)
	metrics.Timing("fetcher", "fetch_all_duration", elapsed, nil)

	summary := Summary{
		Session:    session,
		Assets:     f.store.Assets(),
		Records:    make(map[string]int, len(results)),
		Errors:     errs,
		DurationMs: float64(elapsed.Nanoseconds()) / 1e6,
	}
	for asset, snap := range results {
		summary.Records[asset] = len(snap.Records)
	}

	log.WithFields(logger.Fields{
		"assets_ok":   len(results),
		"errors":      len(errs),
		"duration_ms": summary.DurationMs,
	}).Info("fetch run committed")

	return summary, nil
}

// fetchAsset completes the full sequence for one asset: chain fetch,
// normalization and the joint candlestick batch.
func (f *Fetcher) fetchAsset(ctx context.Context, asset string) (*models.AssetSnapshot, error) {
	tickers, err := f.api.GetOptionChain(ctx, asset)
	if err != nil {
		return nil, err
	}

	records := chain.Normalize(tickers, f.cfg.MinOpenInterest)
	dropped := len(tickers) - len(records)
	if dropped > 0 {
		metrics.Count("fetcher", "records_dropped", float64(dropped), logger.Fields{"asset": asset})
	}

	snap := &models.AssetSnapshot{Asset: asset, Records: records}

	if f.cfg.Candlestick && len(records) > 0 {
		targets := append(
			chain.TopInstrumentsForCandles(records, models.OptionTypeCall, f.cfg.TopPerType),
			chain.TopInstrumentsForCandles(records, models.OptionTypePut, f.cfg.TopPerType)...,
		)
		snap.Candles = f.fetchCandleBatch(ctx, asset, targets)
	}

	return snap, nil
}

// fetchCandleBatch issues the candlestick requests for the selected
// instruments concurrently and joins them once all slots settle. A slot
// that fails carries a nil chart; it never fails the batch or the
// asset.
func (f *Fetcher) fetchCandleBatch(ctx context.Context, asset string, targets []models.OptionRecord) []models.CandleResult {
	toSec := f.now().Unix()
	fromSec := toSec - int64(f.cfg.LookbackHours)*3600

	results := make([]models.CandleResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(slot int, rec models.OptionRecord) {
			defer wg.Done()

			result := models.CandleResult{Symbol: rec.Symbol, OptionType: rec.OptionType}
			chart, err := f.api.GetCandles(ctx, rec.Symbol, f.cfg.ResolutionMinutes, fromSec, toSec)
			if err != nil {
				metrics.Count("fetcher", "candle_fetch_errors", 1, logger.Fields{"asset": asset, "symbol": rec.Symbol})
				f.log.WithComponent("fetcher").WithError(err).WithFields(logger.Fields{
					"asset":  asset,
					"symbol": rec.Symbol,
				}).Debug("candle fetch failed; marking no data")
			} else {
				result.Chart = chart
			}
			results[slot] = result
		}(i, target)
	}
	wg.Wait()

	return results
}
