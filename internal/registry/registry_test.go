package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() []Token {
	return []Token{
		{
			Address:  common.HexToAddress("0x4200000000000000000000000000000000000006"),
			Symbol:   "WETH",
			Decimals: 18,
		},
		{
			Address:       common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bda02913"),
			Symbol:        "USDC",
			Decimals:      6,
			FallbackPrice: decimal.NewFromInt(1),
		},
		{
			Address:  common.HexToAddress("0xcbB7C0000aB88B473b1f5aFd9ef808440eed33Bf"),
			Symbol:   "cbBTC",
			Decimals: 8,
		},
	}
}

func TestResolve(t *testing.T) {
	r := New(testTokens())

	tests := []struct {
		name       string
		address    string
		wantSymbol string
		wantFound  bool
	}{
		{
			name:       "checksummed address",
			address:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bda02913",
			wantSymbol: "USDC",
			wantFound:  true,
		},
		{
			name:       "lowercase address",
			address:    "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
			wantSymbol: "USDC",
			wantFound:  true,
		},
		{
			name:       "uppercase address",
			address:    "0x833589FCD6EDB6E08F4C7C32D4F71B54BDA02913",
			wantSymbol: "USDC",
			wantFound:  true,
		},
		{
			name:      "unknown address",
			address:   "0x1111111111111111111111111111111111111111",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := r.Resolve(common.HexToAddress(tt.address))
			assert.Equal(t, tt.wantFound, ok)
			if tt.wantFound {
				assert.Equal(t, tt.wantSymbol, tok.Symbol)
			}
		})
	}
}

func TestResolveHex(t *testing.T) {
	r := New(testTokens())

	t.Run("valid hex resolves", func(t *testing.T) {
		tok, ok := r.ResolveHex("0x4200000000000000000000000000000000000006")
		require.True(t, ok)
		assert.Equal(t, "WETH", tok.Symbol)
		assert.Equal(t, uint8(18), tok.Decimals)
	})

	t.Run("malformed hex is not found", func(t *testing.T) {
		_, ok := r.ResolveHex("not-an-address")
		assert.False(t, ok)
	})
}

func TestResolveBySymbol(t *testing.T) {
	r := New(testTokens())

	tests := []struct {
		name      string
		symbol    string
		wantFound bool
	}{
		{"exact case", "USDC", true},
		{"lowercase", "usdc", true},
		{"mixed case token", "cbbtc", true},
		{"unknown symbol", "DOGE", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := r.ResolveBySymbol(tt.symbol)
			assert.Equal(t, tt.wantFound, ok)
		})
	}
}

func TestFallbackPricePreserved(t *testing.T) {
	r := New(testTokens())

	usdc, ok := r.ResolveBySymbol("USDC")
	require.True(t, ok)
	assert.True(t, usdc.FallbackPrice.Equal(decimal.NewFromInt(1)))

	weth, ok := r.ResolveBySymbol("WETH")
	require.True(t, ok)
	assert.True(t, weth.FallbackPrice.IsZero())
}

func TestTokensAndLen(t *testing.T) {
	r := New(testTokens())
	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.Tokens(), 3)
}
