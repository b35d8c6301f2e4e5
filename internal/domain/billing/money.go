package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zero-decimal currencies per Stripe's currency docs
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MajorUnits converts a Stripe amount in the currency's smallest unit.
func MajorUnits(amountMinor int64, currency string) decimal.Decimal {
	if zeroDecimal[strings.ToLower(currency)] {
		return decimal.NewFromInt(amountMinor)
	}
	return decimal.New(amountMinor, -2)
}

// FormatAmount renders amountMinor with the currency's usual precision.
func FormatAmount(amountMinor int64, currency string) string {
	if zeroDecimal[strings.ToLower(currency)] {
		return MajorUnits(amountMinor, currency).StringFixed(0)
	}
	return MajorUnits(amountMinor, currency).StringFixed(2)
}
