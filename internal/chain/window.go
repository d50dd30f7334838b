// internal/chain/window.go
// @tag chain, strike_window
package chain

import (
	"math"
	"sort"

	"optionflow/models"
)

// windowTarget is up to 20 strikes below ATM, the ATM strike itself and
// up to 20 strikes above.
const windowTarget = 41

// SelectWindow returns the displayable slice of a chain: the strikes of
// the nearest expiry for the given option type, windowed around the
// at-the-money strike. The result is sorted ascending by strike, is a
// contiguous sub-range of the nearest-expiry chain and holds at most 41
// records; when the naive window is clipped by a chain edge the budget
// shifts to the side with room, so the window always holds
// min(41, chain length) records.
//
// Tie-breaks are deliberately first-encountered-wins: the nearest
// expiry is a sequential min-reduce and the ATM scan uses a strict
// less-than, keeping the lowest-strike minimum. Downstream display
// depends on this determinism.
func SelectWindow(records []models.OptionRecord, optionType models.OptionType, spot float64) []models.OptionRecord {
	byType := make([]models.OptionRecord, 0, len(records))
	for _, r := range records {
		if r.OptionType == optionType {
			byType = append(byType, r)
		}
	}
	if len(byType) == 0 {
		return nil
	}

	nearestExpiry := byType[0].ExpiryMs
	for _, r := range byType[1:] {
		if r.ExpiryMs < nearestExpiry {
			nearestExpiry = r.ExpiryMs
		}
	}

	expiryRecords := make([]models.OptionRecord, 0, len(byType))
	for _, r := range byType {
		if r.ExpiryMs == nearestExpiry {
			expiryRecords = append(expiryRecords, r)
		}
	}
	sort.SliceStable(expiryRecords, func(a, b int) bool {
		return expiryRecords[a].Strike < expiryRecords[b].Strike
	})

	atmIdx := 0
	minDist := math.Inf(1)
	for i, r := range expiryRecords {
		if d := math.Abs(r.Strike - spot); d < minDist {
			minDist = d
			atmIdx = i
		}
	}

	length := len(expiryRecords)
	start := atmIdx - 20
	if start < 0 {
		start = 0
	}
	end := atmIdx + 21
	if end > length {
		end = length
	}

	want := windowTarget
	if length < want {
		want = length
	}
	if end-start < want {
		if start == 0 {
			end = windowTarget
			if end > length {
				end = length
			}
		} else {
			start = end - windowTarget
			if start < 0 {
				start = 0
			}
		}
	}

	return expiryRecords[start:end]
}
