package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// TokenMetadata is on-chain ERC-20 metadata, used to cross-check the
// configured token registry against the contracts it points at.
type TokenMetadata struct {
	Symbol   string
	Decimals uint8
}

// FetchTokenMetadata reads symbol and decimals from a token contract.
func (c *Client) FetchTokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var meta TokenMetadata

	var symbolResult []any
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		contract := bind.NewBoundContract(token, c.erc20ABI, ethClient, ethClient, ethClient)
		symbolResult = symbolResult[:0]
		return contract.Call(&bind.CallOpts{Context: rpcCtx}, &symbolResult, "symbol")
	})
	if err != nil {
		return meta, fmt.Errorf("symbol: %w", err)
	}
	symbol, ok := symbolResult[0].(string)
	if !ok {
		return meta, fmt.Errorf("symbol: unexpected result type %T", symbolResult[0])
	}
	meta.Symbol = symbol

	var decimalsResult []any
	err = c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		contract := bind.NewBoundContract(token, c.erc20ABI, ethClient, ethClient, ethClient)
		decimalsResult = decimalsResult[:0]
		return contract.Call(&bind.CallOpts{Context: rpcCtx}, &decimalsResult, "decimals")
	})
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	decimals, ok := decimalsResult[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("decimals: unexpected result type %T", decimalsResult[0])
	}
	meta.Decimals = decimals

	return meta, nil
}
