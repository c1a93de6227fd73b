package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/liquidation-tracker/internal/oracle"
	"github.com/matrixise/liquidation-tracker/internal/registry"
	"github.com/matrixise/liquidation-tracker/internal/storage"
	"github.com/matrixise/liquidation-tracker/internal/valuation"
)

// TokenResolver resolves token descriptors by address.
type TokenResolver interface {
	Resolve(address common.Address) (registry.Token, bool)
}

// PriceSource resolves USD quotes for a set of tokens.
type PriceSource interface {
	Resolve(ctx context.Context, tokens []registry.Token) map[common.Address]oracle.Quote
}

// RecordStore persists liquidation records idempotently.
type RecordStore interface {
	InsertLiquidation(ctx context.Context, rec storage.LiquidationRecord) (bool, error)
}

// EventSink receives the observability fan-out.
type EventSink interface {
	LogLiquidation(rec storage.LiquidationRecord)
	LogError(context string, err error)
}

// Pipeline values and persists liquidation events. All collaborators are
// injected; the pipeline holds no mutable state of its own, so one instance
// serves concurrent invocations.
type Pipeline struct {
	tokens TokenResolver
	prices PriceSource
	store  RecordStore
	sink   EventSink
}

// New wires a pipeline from its collaborators.
func New(tokens TokenResolver, prices PriceSource, store RecordStore, sink EventSink) *Pipeline {
	return &Pipeline{
		tokens: tokens,
		prices: prices,
		store:  store,
		sink:   sink,
	}
}

// Process runs one event through the full pipeline: registry resolution,
// price resolution, valuation, record build, idempotent store, and logging.
// Every failure is converted into a skip-and-log outcome; the returned error
// exists for the caller's own accounting and must never abort the feed.
func (p *Pipeline) Process(ctx context.Context, ev Event) error {
	collateral, ok := p.tokens.Resolve(ev.CollateralAsset)
	if !ok {
		err := fmt.Errorf("collateral token %s not in registry", ev.CollateralAsset.Hex())
		p.sink.LogError("token lookup failed", err)
		return err
	}
	debt, ok := p.tokens.Resolve(ev.DebtAsset)
	if !ok {
		err := fmt.Errorf("debt token %s not in registry", ev.DebtAsset.Hex())
		p.sink.LogError("token lookup failed", err)
		return err
	}

	quotes := p.prices.Resolve(ctx, []registry.Token{collateral, debt})
	collateralQuote, ok := quotes[collateral.Address]
	if !ok {
		err := fmt.Errorf("no price for collateral %s (%s)", collateral.Symbol, collateral.Address.Hex())
		p.sink.LogError("price resolution failed", err)
		return err
	}
	debtQuote, ok := quotes[debt.Address]
	if !ok {
		err := fmt.Errorf("no price for debt %s (%s)", debt.Symbol, debt.Address.Hex())
		p.sink.LogError("price resolution failed", err)
		return err
	}

	rec, err := BuildRecord(ev, collateral, debt, collateralQuote, debtQuote)
	if err != nil {
		p.sink.LogError("record build failed", err)
		return err
	}

	inserted, err := p.store.InsertLiquidation(ctx, rec)
	if err != nil {
		p.sink.LogError("liquidation store failed", err)
		return err
	}
	if !inserted {
		// Redelivery of an already-stored event is a normal outcome.
		slog.Debug("Duplicate liquidation delivery ignored",
			"tx", rec.TransactionHash, "log_index", rec.LogIndex)
		return nil
	}

	p.sink.LogLiquidation(rec)
	return nil
}

// BuildRecord assembles the canonical liquidation record. It is pure and
// fails rather than producing a partial record.
func BuildRecord(ev Event, collateral, debt registry.Token, collateralQuote, debtQuote oracle.Quote) (storage.LiquidationRecord, error) {
	if ev.LiquidatedCollateralAmount == nil || ev.DebtToCover == nil {
		return storage.LiquidationRecord{}, errors.New("event is missing raw amounts")
	}
	if !collateralQuote.PriceUsd.IsPositive() || !debtQuote.PriceUsd.IsPositive() {
		return storage.LiquidationRecord{}, errors.New("quotes must carry positive prices")
	}

	return storage.LiquidationRecord{
		TransactionHash: ev.TransactionHash.Hex(),
		LogIndex:        ev.LogIndex,
		BlockNumber:     ev.BlockNumber,
		BlockTimestamp:  ev.BlockTimestamp,

		BorrowerAddress:   ev.Borrower.Hex(),
		LiquidatorAddress: ev.Liquidator.Hex(),

		CollateralAsset:    collateral.Address.Hex(),
		CollateralSymbol:   collateral.Symbol,
		CollateralDecimals: collateral.Decimals,
		DebtAsset:          debt.Address.Hex(),
		DebtSymbol:         debt.Symbol,
		DebtDecimals:       debt.Decimals,

		SeizedAmountRaw:  ev.LiquidatedCollateralAmount,
		CollateralAmount: valuation.FormatAmount(ev.LiquidatedCollateralAmount, collateral.Decimals),
		UsdValueSeized:   valuation.UsdValue(ev.LiquidatedCollateralAmount, collateral.Decimals, collateralQuote.PriceUsd),
		DebtAmountRaw:    ev.DebtToCover,
		DebtAmount:       valuation.FormatAmount(ev.DebtToCover, debt.Decimals),
		UsdValueDebt:     valuation.UsdValue(ev.DebtToCover, debt.Decimals, debtQuote.PriceUsd),

		ReceiveAToken: ev.ReceiveAToken,
	}, nil
}
