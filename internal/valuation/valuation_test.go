package valuation

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals uint8
		want     string
	}{
		{"zero", "0", 18, "0"},
		{"one token 18 decimals", "1000000000000000000", 18, "1"},
		{"half token 18 decimals", "500000000000000000", 18, "0.5"},
		{"one token 6 decimals", "1000000", 6, "1"},
		{"fractional 6 decimals", "1500000", 6, "1.5"},
		{"one token 8 decimals", "100000000", 8, "1"},
		{"satoshi 8 decimals", "1", 8, "0.00000001"},
		{"wei below display precision rounds away", "1", 18, "0"},
		{"rounds to 8 fractional digits", "123456789123456789", 18, "0.12345679"},
		{"zero decimals", "100", 0, "100"},
		{"large amount 18 decimals", "123456789000000000000000000", 18, "123456789"},
		{"large amount 6 decimals", "999999999999999999", 6, "999999999999.999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := new(big.Int).SetString(tt.raw, 10)
			require.True(t, ok)
			got := FormatAmount(raw, tt.decimals)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatAmountNilRaw(t *testing.T) {
	assert.True(t, FormatAmount(nil, 18).IsZero())
}

func TestFormatAmountMatchesDivision(t *testing.T) {
	// formatAmount(r, d) == r / 10^d for the supported decimals.
	for _, decimals := range []uint8{6, 8, 18} {
		raws := []string{"1", "42", "999999", "1000000007", "123456789123456789123"}
		for _, rawStr := range raws {
			raw, ok := new(big.Int).SetString(rawStr, 10)
			require.True(t, ok)

			divisor := decimal.New(1, int32(decimals))
			want := decimal.NewFromBigInt(raw, 0).DivRound(divisor, AmountPrecision)

			got := FormatAmount(raw, decimals)
			assert.True(t, got.Equal(want),
				"raw=%s decimals=%d got=%s want=%s", rawStr, decimals, got, want)
		}
	}
}

func TestUsdValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals uint8
		price    string
		want     string
	}{
		{
			name:     "half WETH at 3000 USD",
			raw:      "500000000000000000",
			decimals: 18,
			price:    "3000",
			want:     "1500",
		},
		{
			name:     "1000 USDC at parity",
			raw:      "1000000000",
			decimals: 6,
			price:    "1",
			want:     "1000",
		},
		{
			name:     "one satoshi of cbBTC at 60000 USD",
			raw:      "1",
			decimals: 8,
			price:    "60000",
			want:     "0.0006",
		},
		{
			name:     "zero amount",
			raw:      "0",
			decimals: 18,
			price:    "3000",
			want:     "0",
		},
		{
			name:     "rounds to 4 fractional digits",
			raw:      "333333333333333333",
			decimals: 18,
			price:    "3",
			want:     "1",
		},
		{
			name:     "EURC peg",
			raw:      "2000000",
			decimals: 6,
			price:    "1.1",
			want:     "2.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := new(big.Int).SetString(tt.raw, 10)
			require.True(t, ok)
			price, err := decimal.NewFromString(tt.price)
			require.NoError(t, err)

			got := UsdValue(raw, tt.decimals, price)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestUsdValueZeroForAnyPrice(t *testing.T) {
	for _, decimals := range []uint8{6, 8, 18} {
		for _, price := range []string{"0.0001", "1", "3000", "99999.9999"} {
			p, err := decimal.NewFromString(price)
			require.NoError(t, err)
			assert.True(t, UsdValue(big.NewInt(0), decimals, p).IsZero())
		}
	}
}

func TestUsdValueMonotonicity(t *testing.T) {
	price := decimal.NewFromInt(250)

	t.Run("increasing in raw amount", func(t *testing.T) {
		prev := decimal.NewFromInt(-1)
		for _, rawStr := range []string{"1000000", "2000000", "5000000", "100000000"} {
			raw, ok := new(big.Int).SetString(rawStr, 10)
			require.True(t, ok)
			v := UsdValue(raw, 6, price)
			assert.True(t, v.GreaterThan(prev), "expected %s > %s", v, prev)
			prev = v
		}
	})

	t.Run("increasing in price", func(t *testing.T) {
		raw := big.NewInt(5000000)
		prev := decimal.NewFromInt(-1)
		for _, priceStr := range []string{"0.5", "1", "100", "3000"} {
			p, err := decimal.NewFromString(priceStr)
			require.NoError(t, err)
			v := UsdValue(raw, 6, p)
			assert.True(t, v.GreaterThan(prev), "expected %s > %s", v, prev)
			prev = v
		}
	})
}

// Pins the generic formula, with 8-decimal oracle prices, to the exact value
// of raw * price / (10^decimals * 10^8) for the three decimals most common
// among tracked tokens.
func TestUsdValueCanonicalDecimalsBuckets(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		decimals  uint8
		oracleRaw string // price scaled by 1e8
		want      string
	}{
		{"6 decimals bucket", "2500000000", 6, "100000000", "2500"},
		{"8 decimals bucket", "150000000", 8, "6000000000000", "90000"},
		{"18 decimals bucket", "500000000000000000", 18, "300000000000", "1500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := new(big.Int).SetString(tt.raw, 10)
			require.True(t, ok)
			oracleRaw, ok := new(big.Int).SetString(tt.oracleRaw, 10)
			require.True(t, ok)

			// Reference value computed with exact integer arithmetic.
			product := new(big.Int).Mul(raw, oracleRaw)
			ref := decimal.NewFromBigInt(product, -(int32(tt.decimals) + 8)).Round(UsdPrecision)
			require.Equal(t, tt.want, ref.String())

			price := decimal.NewFromBigInt(oracleRaw, -8)
			got := UsdValue(raw, tt.decimals, price)
			assert.True(t, got.Equal(ref), "generic=%s reference=%s", got, ref)
		})
	}
}
