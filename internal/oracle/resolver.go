package oracle

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/matrixise/liquidation-tracker/internal/registry"
)

// DefaultOracleDecimals is the fixed price scaling of the Aave oracle.
const DefaultOracleDecimals int32 = 8

// Source identifies where a resolved price came from.
type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Quote is a resolved USD price for a token address. Quotes are transient;
// they are only embedded in derived valuations, never persisted on their own.
type Quote struct {
	Asset      common.Address
	PriceUsd   decimal.Decimal
	ObservedAt time.Time
	Source     Source
}

// PriceCaller issues raw on-chain oracle reads. Prices come back scaled by
// the oracle's fixed decimal exponent.
type PriceCaller interface {
	AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error)
	AssetPrices(ctx context.Context, assets []common.Address) ([]*big.Int, error)
}

// Resolver turns oracle reads into USD prices, with static stablecoin
// fallbacks for assets whose oracle path is unavailable.
type Resolver struct {
	caller    PriceCaller
	decimals  int32
	fallbacks map[string]decimal.Decimal
}

// NewResolver builds a resolver over the given caller. Fallback pegs are
// taken from the token list (tokens with a zero FallbackPrice have none).
func NewResolver(caller PriceCaller, tokens []registry.Token) *Resolver {
	fallbacks := make(map[string]decimal.Decimal)
	for _, tok := range tokens {
		if tok.FallbackPrice.IsPositive() {
			fallbacks[strings.ToUpper(tok.Symbol)] = tok.FallbackPrice
		}
	}
	return &Resolver{
		caller:    caller,
		decimals:  DefaultOracleDecimals,
		fallbacks: fallbacks,
	}
}

// AssetPrice reads a single token price from the oracle. The second return
// value is false when the price is unavailable: transport failure, oracle
// failure, or a zero price (zero is never treated as a valid quote).
func (r *Resolver) AssetPrice(ctx context.Context, asset common.Address) (decimal.Decimal, bool) {
	raw, err := r.caller.AssetPrice(ctx, asset)
	if err != nil {
		slog.Error("Oracle price read failed", "asset", asset.Hex(), "error", err)
		return decimal.Zero, false
	}
	return r.descale(raw)
}

// AssetPrices reads a batch of token prices with a single oracle call. The
// result slice is parallel to assets; unavailable entries are false. A failed
// batch call returns ok=false so the caller can fall back to per-asset reads.
func (r *Resolver) AssetPrices(ctx context.Context, assets []common.Address) ([]decimal.Decimal, []bool, bool) {
	raws, err := r.caller.AssetPrices(ctx, assets)
	if err != nil || len(raws) != len(assets) {
		slog.Error("Oracle batch price read failed", "assets", len(assets), "error", err)
		return nil, nil, false
	}
	prices := make([]decimal.Decimal, len(assets))
	available := make([]bool, len(assets))
	for i, raw := range raws {
		prices[i], available[i] = r.descale(raw)
	}
	return prices, available, true
}

// FallbackPrice returns the static USD peg for a symbol, if one is configured.
func (r *Resolver) FallbackPrice(symbol string) (decimal.Decimal, bool) {
	price, ok := r.fallbacks[strings.ToUpper(symbol)]
	return price, ok
}

// Resolve applies the full resolution ladder to a set of tokens: one batched
// oracle call first, a per-asset retry for every missing or zero entry, then
// the stablecoin fallback. Tokens that survive all three stages are absent
// from the result and reported, never silently priced at zero.
func (r *Resolver) Resolve(ctx context.Context, tokens []registry.Token) map[common.Address]Quote {
	quotes := make(map[common.Address]Quote, len(tokens))

	assets := make([]common.Address, len(tokens))
	for i, tok := range tokens {
		assets[i] = tok.Address
	}

	prices, available, ok := r.AssetPrices(ctx, assets)
	if ok {
		now := time.Now().UTC()
		for i, tok := range tokens {
			if available[i] {
				quotes[tok.Address] = Quote{
					Asset:      tok.Address,
					PriceUsd:   prices[i],
					ObservedAt: now,
					Source:     SourceOracle,
				}
			}
		}
	}

	for _, tok := range tokens {
		if _, done := quotes[tok.Address]; done {
			continue
		}
		if price, ok := r.AssetPrice(ctx, tok.Address); ok {
			quotes[tok.Address] = Quote{
				Asset:      tok.Address,
				PriceUsd:   price,
				ObservedAt: time.Now().UTC(),
				Source:     SourceOracle,
			}
			continue
		}
		if peg, ok := r.FallbackPrice(tok.Symbol); ok {
			slog.Warn("Using fallback price", "symbol", tok.Symbol, "price", peg.String())
			quotes[tok.Address] = Quote{
				Asset:      tok.Address,
				PriceUsd:   peg,
				ObservedAt: time.Now().UTC(),
				Source:     SourceFallback,
			}
			continue
		}
		slog.Error("Price unavailable", "symbol", tok.Symbol, "asset", tok.Address.Hex())
	}

	return quotes
}

// descale divides the oracle's fixed-point integer down to a USD decimal.
func (r *Resolver) descale(raw *big.Int) (decimal.Decimal, bool) {
	if raw == nil || raw.Sign() <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromBigInt(raw, -r.decimals), true
}
