// internal/chain/aggregate.go
// @tag chain, aggregator
package chain

import (
	"sort"

	"optionflow/models"
)

// GroupByExpiry buckets records by settlement timestamp. Groups come
// back soonest first; inside a group the input order is preserved, so
// concatenating all groups in order is a stable partition of the input.
func GroupByExpiry(records []models.OptionRecord) []models.ExpiryGroup {
	index := make(map[int64]int)
	groups := make([]models.ExpiryGroup, 0)
	for _, r := range records {
		i, ok := index[r.ExpiryMs]
		if !ok {
			i = len(groups)
			index[r.ExpiryMs] = i
			groups = append(groups, models.ExpiryGroup{ExpiryMs: r.ExpiryMs})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].ExpiryMs < groups[b].ExpiryMs
	})
	return groups
}

// TopInstrumentsForCandles picks the topN records of the given option
// type ranked by open interest (absent counts as 0), descending. The
// sort is stable, so instruments with equal open interest keep their
// relative input order. The result bounds how many candlestick fetches
// are issued per asset per option type.
func TopInstrumentsForCandles(records []models.OptionRecord, optionType models.OptionType, topN int) []models.OptionRecord {
	filtered := make([]models.OptionRecord, 0, len(records))
	for _, r := range records {
		if r.OptionType == optionType {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(a, b int) bool {
		return openInterestOrZero(filtered[a]) > openInterestOrZero(filtered[b])
	})
	if topN < 0 {
		topN = 0
	}
	if len(filtered) > topN {
		filtered = filtered[:topN]
	}
	return filtered
}

func openInterestOrZero(r models.OptionRecord) float64 {
	if r.OpenInterest == nil {
		return 0
	}
	return *r.OpenInterest
}
