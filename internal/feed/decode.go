package feed

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/matrixise/liquidation-tracker/internal/pipeline"
)

// DecodeLiquidation turns a raw LiquidationCall log into a pipeline event.
// The block timestamp is not part of the log and stays zero; the poller fills
// it in from the block header.
func DecodeLiquidation(lg types.Log) (pipeline.Event, error) {
	if len(lg.Topics) != 4 {
		return pipeline.Event{}, fmt.Errorf("expected 4 topics, got %d", len(lg.Topics))
	}
	if lg.Topics[0] != LiquidationTopicID {
		return pipeline.Event{}, fmt.Errorf("unexpected event signature %s", lg.Topics[0].Hex())
	}

	values, err := liquidationEvent.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return pipeline.Event{}, fmt.Errorf("unpack log data: %w", err)
	}
	if len(values) != 4 {
		return pipeline.Event{}, fmt.Errorf("expected 4 data fields, got %d", len(values))
	}

	debtToCover, ok := values[0].(*big.Int)
	if !ok {
		return pipeline.Event{}, fmt.Errorf("debtToCover: unexpected type %T", values[0])
	}
	liquidatedCollateral, ok := values[1].(*big.Int)
	if !ok {
		return pipeline.Event{}, fmt.Errorf("liquidatedCollateralAmount: unexpected type %T", values[1])
	}
	liquidator, ok := values[2].(common.Address)
	if !ok {
		return pipeline.Event{}, fmt.Errorf("liquidator: unexpected type %T", values[2])
	}
	receiveAToken, ok := values[3].(bool)
	if !ok {
		return pipeline.Event{}, fmt.Errorf("receiveAToken: unexpected type %T", values[3])
	}

	return pipeline.Event{
		CollateralAsset:            topicAddress(lg.Topics[1]),
		DebtAsset:                  topicAddress(lg.Topics[2]),
		Borrower:                   topicAddress(lg.Topics[3]),
		Liquidator:                 liquidator,
		DebtToCover:                debtToCover,
		LiquidatedCollateralAmount: liquidatedCollateral,
		ReceiveAToken:              receiveAToken,
		BlockNumber:                lg.BlockNumber,
		TransactionHash:            lg.TxHash,
		LogIndex:                   uint32(lg.Index),
	}, nil
}
