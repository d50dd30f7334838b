package chain

import (
	"testing"

	"optionflow/models"
)

func rec(symbol string, optionType models.OptionType, strike float64, expiryMs int64, oi *float64) models.OptionRecord {
	return models.OptionRecord{
		Symbol:       symbol,
		OptionType:   optionType,
		Strike:       strike,
		ExpiryMs:     expiryMs,
		OpenInterest: oi,
	}
}

func TestGroupByExpiryAscendingStable(t *testing.T) {
	records := []models.OptionRecord{
		rec("a", models.OptionTypeCall, 100, 3000, nil),
		rec("b", models.OptionTypeCall, 110, 1000, nil),
		rec("c", models.OptionTypePut, 100, 3000, nil),
		rec("d", models.OptionTypeCall, 120, 2000, nil),
		rec("e", models.OptionTypePut, 110, 1000, nil),
	}

	groups := GroupByExpiry(records)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantExpiries := []int64{1000, 2000, 3000}
	for i, want := range wantExpiries {
		if groups[i].ExpiryMs != want {
			t.Errorf("group %d expiry = %d, want %d", i, groups[i].ExpiryMs, want)
		}
	}

	// Within each group input order survives.
	if groups[0].Records[0].Symbol != "b" || groups[0].Records[1].Symbol != "e" {
		t.Errorf("group 1000 order broken: %v", symbols(groups[0].Records))
	}
	if groups[2].Records[0].Symbol != "a" || groups[2].Records[1].Symbol != "c" {
		t.Errorf("group 3000 order broken: %v", symbols(groups[2].Records))
	}
}

func TestGroupByExpiryEmpty(t *testing.T) {
	if groups := GroupByExpiry(nil); len(groups) != 0 {
		t.Fatalf("expected no groups for empty input, got %d", len(groups))
	}
}

func TestTopInstrumentsForCandles(t *testing.T) {
	records := []models.OptionRecord{
		rec("call-low", models.OptionTypeCall, 100, 1000, fptr(10)),
		rec("put-big", models.OptionTypePut, 100, 1000, fptr(500)),
		rec("call-big", models.OptionTypeCall, 110, 1000, fptr(300)),
		rec("call-nil", models.OptionTypeCall, 120, 1000, nil),
		rec("call-mid", models.OptionTypeCall, 130, 1000, fptr(50)),
	}

	top := TopInstrumentsForCandles(records, models.OptionTypeCall, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 instruments, got %d", len(top))
	}
	want := []string{"call-big", "call-mid", "call-low"}
	for i, w := range want {
		if top[i].Symbol != w {
			t.Errorf("rank %d = %q, want %q", i, top[i].Symbol, w)
		}
	}
}

func TestTopInstrumentsForCandlesStableTies(t *testing.T) {
	records := []models.OptionRecord{
		rec("first", models.OptionTypePut, 100, 1000, fptr(50)),
		rec("second", models.OptionTypePut, 110, 1000, fptr(50)),
		rec("third", models.OptionTypePut, 120, 1000, nil),
		rec("fourth", models.OptionTypePut, 130, 1000, fptr(0)),
	}

	top := TopInstrumentsForCandles(records, models.OptionTypePut, 10)
	if len(top) != 4 {
		t.Fatalf("expected all 4 instruments, got %d", len(top))
	}
	want := []string{"first", "second", "third", "fourth"}
	for i, w := range want {
		if top[i].Symbol != w {
			t.Errorf("rank %d = %q, want %q (ties keep input order, nil counts as 0)", i, top[i].Symbol, w)
		}
	}
}

func TestTopInstrumentsForCandlesNegativeBudget(t *testing.T) {
	records := []models.OptionRecord{
		rec("a", models.OptionTypeCall, 100, 1000, fptr(10)),
	}
	if top := TopInstrumentsForCandles(records, models.OptionTypeCall, -1); len(top) != 0 {
		t.Fatalf("expected empty result for negative budget, got %d", len(top))
	}
}

func symbols(records []models.OptionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return out
}
