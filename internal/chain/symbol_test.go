package chain

import (
	"testing"
	"time"

	"optionflow/models"
)

func TestParseSymbolCall(t *testing.T) {
	sym, ok := ParseSymbol("C-BTC-65000-080824")
	if !ok {
		t.Fatalf("expected symbol to parse")
	}
	if sym.OptionType != models.OptionTypeCall {
		t.Errorf("option type = %q, want call", sym.OptionType)
	}
	if sym.Asset != "BTC" {
		t.Errorf("asset = %q, want BTC", sym.Asset)
	}
	if sym.Strike != 65000 {
		t.Errorf("strike = %v, want 65000", sym.Strike)
	}
	if sym.ExpiryDate != "2024-08-08" {
		t.Errorf("expiry date = %q, want 2024-08-08", sym.ExpiryDate)
	}
	wantMs := time.Date(2024, time.August, 8, 8, 0, 0, 0, time.UTC).UnixMilli()
	if sym.ExpiryMs != wantMs {
		t.Errorf("expiry ms = %d, want %d", sym.ExpiryMs, wantMs)
	}
	if sym.ExpiryRaw != "080824" {
		t.Errorf("expiry raw = %q, want 080824", sym.ExpiryRaw)
	}
}

func TestParseSymbolPutDecimalStrike(t *testing.T) {
	sym, ok := ParseSymbol("P-ETH-3200.5-271224")
	if !ok {
		t.Fatalf("expected symbol to parse")
	}
	if sym.OptionType != models.OptionTypePut {
		t.Errorf("option type = %q, want put", sym.OptionType)
	}
	if sym.Strike != 3200.5 {
		t.Errorf("strike = %v, want 3200.5", sym.Strike)
	}
	if sym.ExpiryDate != "2024-12-27" {
		t.Errorf("expiry date = %q, want 2024-12-27", sym.ExpiryDate)
	}
}

func TestParseSymbolExtraPartsIgnored(t *testing.T) {
	sym, ok := ParseSymbol("C-BTC-65000-080824-EXTRA")
	if !ok {
		t.Fatalf("expected symbol with trailing parts to parse")
	}
	if sym.ExpiryRaw != "080824" {
		t.Errorf("expiry raw = %q, want 080824", sym.ExpiryRaw)
	}
}

func TestParseSymbolCentury(t *testing.T) {
	sym, ok := ParseSymbol("C-BTC-50000-010199")
	if !ok {
		t.Fatalf("expected symbol to parse")
	}
	if sym.ExpiryDate != "2099-01-01" {
		t.Errorf("expiry date = %q, want 2099-01-01", sym.ExpiryDate)
	}
}

func TestParseSymbolInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"too few parts":    "BTC-65000-080824",
		"bad type":         "X-BTC-65000-080824",
		"lowercase type":   "c-BTC-65000-080824",
		"non-numeric":      "C-BTC-abc-080824",
		"nan strike":       "C-BTC-NaN-080824",
		"inf strike":       "C-BTC-Inf-080824",
		"short expiry":     "C-BTC-65000-0808",
		"non-digit expiry": "C-BTC-65000-ab0824",
	}
	for name, symbol := range cases {
		if _, ok := ParseSymbol(symbol); ok {
			t.Errorf("%s: symbol %q should not parse", name, symbol)
		}
	}
}
