package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixise/liquidation-tracker/internal/registry"
)

type stubCaller struct {
	prices      map[common.Address]*big.Int
	singleErr   error
	batchErr    error
	singleCalls int
	batchCalls  int
}

func (s *stubCaller) AssetPrice(_ context.Context, asset common.Address) (*big.Int, error) {
	s.singleCalls++
	if s.singleErr != nil {
		return nil, s.singleErr
	}
	if price, ok := s.prices[asset]; ok {
		return price, nil
	}
	return big.NewInt(0), nil
}

func (s *stubCaller) AssetPrices(_ context.Context, assets []common.Address) ([]*big.Int, error) {
	s.batchCalls++
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([]*big.Int, len(assets))
	for i, asset := range assets {
		if price, ok := s.prices[asset]; ok {
			out[i] = price
		} else {
			out[i] = big.NewInt(0)
		}
	}
	return out, nil
}

var (
	wethAddr = common.HexToAddress("0x4200000000000000000000000000000000000006")
	usdcAddr = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bda02913")
)

func resolverTokens() []registry.Token {
	return []registry.Token{
		{Address: wethAddr, Symbol: "WETH", Decimals: 18},
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6, FallbackPrice: decimal.NewFromInt(1)},
	}
}

func TestAssetPriceDescaling(t *testing.T) {
	caller := &stubCaller{prices: map[common.Address]*big.Int{
		wethAddr: big.NewInt(100000000), // 1.0 USD at 8 oracle decimals
	}}
	r := NewResolver(caller, resolverTokens())

	price, ok := r.AssetPrice(context.Background(), wethAddr)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(1)), "got %s", price)
}

func TestAssetPriceUnavailable(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		caller := &stubCaller{singleErr: errors.New("connection refused")}
		r := NewResolver(caller, resolverTokens())

		_, ok := r.AssetPrice(context.Background(), wethAddr)
		assert.False(t, ok)
	})

	t.Run("zero price", func(t *testing.T) {
		caller := &stubCaller{prices: map[common.Address]*big.Int{}}
		r := NewResolver(caller, resolverTokens())

		_, ok := r.AssetPrice(context.Background(), wethAddr)
		assert.False(t, ok)
	})
}

func TestAssetPricesBatch(t *testing.T) {
	caller := &stubCaller{prices: map[common.Address]*big.Int{
		wethAddr: big.NewInt(100000000),
		usdcAddr: big.NewInt(200000000),
	}}
	r := NewResolver(caller, resolverTokens())

	prices, available, ok := r.AssetPrices(context.Background(), []common.Address{wethAddr, usdcAddr})
	require.True(t, ok)
	require.Len(t, prices, 2)
	assert.True(t, available[0])
	assert.True(t, available[1])
	assert.True(t, prices[0].Equal(decimal.NewFromInt(1)), "got %s", prices[0])
	assert.True(t, prices[1].Equal(decimal.NewFromInt(2)), "got %s", prices[1])
}

func TestAssetPricesBatchFailure(t *testing.T) {
	caller := &stubCaller{batchErr: errors.New("execution reverted")}
	r := NewResolver(caller, resolverTokens())

	_, _, ok := r.AssetPrices(context.Background(), []common.Address{wethAddr})
	assert.False(t, ok)
}

func TestFallbackPrice(t *testing.T) {
	r := NewResolver(&stubCaller{}, resolverTokens())

	t.Run("configured peg", func(t *testing.T) {
		price, ok := r.FallbackPrice("USDC")
		require.True(t, ok)
		assert.True(t, price.Equal(decimal.NewFromInt(1)))
	})

	t.Run("case-insensitive symbol", func(t *testing.T) {
		_, ok := r.FallbackPrice("usdc")
		assert.True(t, ok)
	})

	t.Run("no peg configured", func(t *testing.T) {
		_, ok := r.FallbackPrice("WETH")
		assert.False(t, ok)
	})
}

func TestResolveBatchFirst(t *testing.T) {
	caller := &stubCaller{prices: map[common.Address]*big.Int{
		wethAddr: big.NewInt(300000000000), // 3000 USD
		usdcAddr: big.NewInt(100000000),
	}}
	r := NewResolver(caller, resolverTokens())

	quotes := r.Resolve(context.Background(), resolverTokens())
	require.Len(t, quotes, 2)
	assert.Equal(t, 1, caller.batchCalls)
	assert.Equal(t, 0, caller.singleCalls, "batch covered everything, no per-asset reads")
	assert.True(t, quotes[wethAddr].PriceUsd.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, SourceOracle, quotes[wethAddr].Source)
}

func TestResolveRetriesIndividuallyThenFallsBack(t *testing.T) {
	// Batch returns zero for USDC; the individual retry also sees zero, so
	// the configured 1.0 peg applies.
	caller := &stubCaller{prices: map[common.Address]*big.Int{
		wethAddr: big.NewInt(300000000000),
	}}
	r := NewResolver(caller, resolverTokens())

	quotes := r.Resolve(context.Background(), resolverTokens())
	require.Len(t, quotes, 2)
	assert.Equal(t, 1, caller.singleCalls, "one retry for the zero-priced token")

	usdc := quotes[usdcAddr]
	assert.True(t, usdc.PriceUsd.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, SourceFallback, usdc.Source)
}

func TestResolveBatchFailureFallsBackToSingles(t *testing.T) {
	caller := &stubCaller{
		batchErr: errors.New("execution reverted"),
		prices: map[common.Address]*big.Int{
			wethAddr: big.NewInt(250000000000),
			usdcAddr: big.NewInt(100000000),
		},
	}
	r := NewResolver(caller, resolverTokens())

	quotes := r.Resolve(context.Background(), resolverTokens())
	require.Len(t, quotes, 2)
	assert.Equal(t, 2, caller.singleCalls)
	assert.True(t, quotes[wethAddr].PriceUsd.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, SourceOracle, quotes[usdcAddr].Source)
}

func TestResolveUnavailableWithoutFallback(t *testing.T) {
	// Nothing resolves for WETH and it has no peg: it must be absent from the
	// result, not defaulted to zero.
	caller := &stubCaller{
		batchErr:  errors.New("down"),
		singleErr: errors.New("down"),
	}
	r := NewResolver(caller, resolverTokens())

	quotes := r.Resolve(context.Background(), resolverTokens())
	_, hasWeth := quotes[wethAddr]
	assert.False(t, hasWeth)

	usdc, hasUsdc := quotes[usdcAddr]
	require.True(t, hasUsdc)
	assert.Equal(t, SourceFallback, usdc.Source)
}
