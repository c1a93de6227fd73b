package storage

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() LiquidationRecord {
	seized, _ := new(big.Int).SetString("500000000000000000", 10)
	debt, _ := new(big.Int).SetString("1000000000", 10)
	return LiquidationRecord{
		TransactionHash:    "0xabc0000000000000000000000000000000000000000000000000000000000001",
		LogIndex:           7,
		BlockNumber:        28281700,
		BlockTimestamp:     1656789012,
		BorrowerAddress:    "0x1111111111111111111111111111111111111111",
		LiquidatorAddress:  "0x2222222222222222222222222222222222222222",
		CollateralAsset:    "0x4200000000000000000000000000000000000006",
		CollateralSymbol:   "WETH",
		CollateralDecimals: 18,
		DebtAsset:          "0x833589fCD6eDb6E08f4c7C32D4f71b54bda02913",
		DebtSymbol:         "USDC",
		DebtDecimals:       6,
		SeizedAmountRaw:    seized,
		CollateralAmount:   decimal.RequireFromString("0.5"),
		UsdValueSeized:     decimal.RequireFromString("1500.0000"),
		DebtAmountRaw:      debt,
		DebtAmount:         decimal.RequireFromString("1000"),
		UsdValueDebt:       decimal.RequireFromString("1000.0000"),
		ReceiveAToken:      false,
	}
}

func TestLiquidationRecordFields(t *testing.T) {
	rec := sampleRecord()

	assert.NotEmpty(t, rec.TransactionHash)
	assert.NotNil(t, rec.SeizedAmountRaw)
	assert.NotNil(t, rec.DebtAmountRaw)
	assert.Equal(t, "500000000000000000", rec.SeizedAmountRaw.String())
	assert.Equal(t, "1000000000", rec.DebtAmountRaw.String())
	assert.True(t, rec.UsdValueSeized.Equal(decimal.NewFromInt(1500)))
}

func TestInsertSQLIsIdempotentByIdentity(t *testing.T) {
	// The conflict target is the composite delivery identity; duplicate
	// redelivery must be a silent no-op.
	assert.Contains(t, insertLiquidationSQL, "ON CONFLICT (transaction_hash, log_index) DO NOTHING")

	// One placeholder per inserted column.
	assert.Equal(t, 19, strings.Count(insertLiquidationSQL, "$"))
	assert.Contains(t, insertLiquidationSQL, "$19")
}

func TestRawAmountStringConversion(t *testing.T) {
	t.Run("preserves precision beyond 64 bits", func(t *testing.T) {
		raw, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
		require.True(t, ok)

		str := raw.String()
		parsed, ok := new(big.Int).SetString(str, 10)
		require.True(t, ok)
		assert.Equal(t, raw, parsed)
	})

	t.Run("zero raw amount", func(t *testing.T) {
		assert.Equal(t, "0", big.NewInt(0).String())
	})
}

func TestDecimalColumnsKeepScale(t *testing.T) {
	rec := sampleRecord()

	// USD values round to 4 fractional digits, amounts to 8; anything beyond
	// that would silently lose scale in the NUMERIC columns.
	assert.True(t, rec.UsdValueSeized.Round(4).Equal(rec.UsdValueSeized))
	assert.True(t, rec.UsdValueDebt.Round(4).Equal(rec.UsdValueDebt))
	assert.True(t, rec.CollateralAmount.Round(8).Equal(rec.CollateralAmount))
	assert.True(t, rec.DebtAmount.Round(8).Equal(rec.DebtAmount))
}
