// internal/chain/symbol.go
// @tag chain, symbol, parser
package chain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"optionflow/models"
)

// Options settle at 08:00 UTC on the expiry date.
const settlementHourUTC = 8

// ParseSymbol decodes an instrument symbol of the form
// {C|P}-{ASSET}-{STRIKE}-{DDMMYY} into its structured fields. The second
// return value is false for any symbol that does not match the shape:
// fewer than four hyphen-separated parts, a type prefix other than C or
// P, a non-finite strike, or an expiry shorter than six digits.
//
// The century is fixed: year is 20 + the two-digit suffix, so symbols
// expiring in or after 2100 would be mis-dated.
func ParseSymbol(symbol string) (models.ParsedSymbol, bool) {
	parts := strings.Split(symbol, "-")
	if len(parts) < 4 {
		return models.ParsedSymbol{}, false
	}

	typePart, asset, strikePart, expiryPart := parts[0], parts[1], parts[2], parts[3]

	var optionType models.OptionType
	switch typePart {
	case "C":
		optionType = models.OptionTypeCall
	case "P":
		optionType = models.OptionTypePut
	default:
		return models.ParsedSymbol{}, false
	}

	strike, err := strconv.ParseFloat(strikePart, 64)
	if err != nil || math.IsNaN(strike) || math.IsInf(strike, 0) {
		return models.ParsedSymbol{}, false
	}

	if len(expiryPart) < 6 {
		return models.ParsedSymbol{}, false
	}
	day, err := strconv.Atoi(expiryPart[0:2])
	if err != nil {
		return models.ParsedSymbol{}, false
	}
	month, err := strconv.Atoi(expiryPart[2:4])
	if err != nil {
		return models.ParsedSymbol{}, false
	}
	yearSuffix, err := strconv.Atoi(expiryPart[4:6])
	if err != nil {
		return models.ParsedSymbol{}, false
	}
	year := 2000 + yearSuffix

	settlement := time.Date(year, time.Month(month), day, settlementHourUTC, 0, 0, 0, time.UTC)

	return models.ParsedSymbol{
		OptionType: optionType,
		Asset:      asset,
		Strike:     strike,
		ExpiryDate: settlement.Format("2006-01-02"),
		ExpiryMs:   settlement.UnixMilli(),
		ExpiryRaw:  expiryPart,
	}, true
}
