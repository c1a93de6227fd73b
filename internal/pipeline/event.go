package pipeline

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is the inbound liquidation contract delivered by the feed: the
// decoded LiquidationCall arguments plus block, transaction, and log
// identity. (TransactionHash, LogIndex) is the delivery identity; the feed
// may redeliver the same pair.
type Event struct {
	CollateralAsset common.Address
	DebtAsset       common.Address
	Borrower        common.Address
	Liquidator      common.Address

	DebtToCover                *big.Int
	LiquidatedCollateralAmount *big.Int
	ReceiveAToken              bool

	BlockNumber     uint64
	BlockTimestamp  uint64
	TransactionHash common.Hash
	LogIndex        uint32
}
