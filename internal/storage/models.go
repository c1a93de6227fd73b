package storage

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// LiquidationRecord is the persisted form of one valued liquidation event.
// Identity is (TransactionHash, LogIndex); rows are immutable once written.
type LiquidationRecord struct {
	TransactionHash string
	LogIndex        uint32
	BlockNumber     uint64
	BlockTimestamp  uint64

	BorrowerAddress   string
	LiquidatorAddress string

	CollateralAsset    string
	CollateralSymbol   string
	CollateralDecimals uint8
	DebtAsset          string
	DebtSymbol         string
	DebtDecimals       uint8

	SeizedAmountRaw  *big.Int
	CollateralAmount decimal.Decimal
	UsdValueSeized   decimal.Decimal
	DebtAmountRaw    *big.Int
	DebtAmount       decimal.Decimal
	UsdValueDebt     decimal.Decimal

	ReceiveAToken bool
}
