package feed

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// aavePoolABI carries the single pool event the feed subscribes to.
const aavePoolABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "collateralAsset", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "debtAsset", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "user", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "debtToCover", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "liquidatedCollateralAmount", "type": "uint256"},
			{"indexed": false, "internalType": "address", "name": "liquidator", "type": "address"},
			{"indexed": false, "internalType": "bool", "name": "receiveAToken", "type": "bool"}
		],
		"name": "LiquidationCall",
		"type": "event"
	}
]`

var (
	poolABI            = mustParseABI(aavePoolABI)
	liquidationEvent   = poolABI.Events["LiquidationCall"]
	LiquidationTopicID = liquidationEvent.ID
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// topicAddress extracts an address from an indexed event topic.
func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes())
}
