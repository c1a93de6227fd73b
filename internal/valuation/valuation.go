package valuation

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// AmountPrecision is the display precision for token amounts.
	AmountPrecision int32 = 8
	// UsdPrecision is the display precision for USD values.
	UsdPrecision int32 = 4
)

// FormatAmount converts a raw integer amount in smallest units to a
// human-readable decimal by scaling down by 10^decimals. The raw value stays
// in exact integer arithmetic; only the final result is rounded to
// AmountPrecision fractional digits.
func FormatAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).Round(AmountPrecision)
}

// UsdValue computes the USD value of a raw token amount at the given price,
// rounded to UsdPrecision fractional digits. The same scaling formula applies
// for every token decimals value; there are no per-decimals shortcuts.
func UsdValue(raw *big.Int, decimals uint8, priceUsd decimal.Decimal) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).Mul(priceUsd).Round(UsdPrecision)
}
