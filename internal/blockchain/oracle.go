package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// AssetPrice reads a single token price from the Aave oracle. The result is
// scaled by the oracle's fixed decimal exponent; descaling is the resolver's
// concern.
func (c *Client) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var result []any
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		contract := bind.NewBoundContract(c.oracleAddress, c.oracleABI, ethClient, ethClient, ethClient)
		result = result[:0]
		return contract.Call(&bind.CallOpts{Context: rpcCtx}, &result, "getAssetPrice", asset)
	})
	if err != nil {
		return nil, fmt.Errorf("getAssetPrice: %w", err)
	}

	price, ok := result[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAssetPrice: unexpected result type %T", result[0])
	}
	return price, nil
}

// AssetPrices reads prices for all assets with one oracle call. The returned
// slice is parallel to assets.
func (c *Client) AssetPrices(ctx context.Context, assets []common.Address) ([]*big.Int, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var result []any
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		contract := bind.NewBoundContract(c.oracleAddress, c.oracleABI, ethClient, ethClient, ethClient)
		result = result[:0]
		return contract.Call(&bind.CallOpts{Context: rpcCtx}, &result, "getAssetsPrices", assets)
	})
	if err != nil {
		return nil, fmt.Errorf("getAssetsPrices: %w", err)
	}

	prices, ok := result[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAssetsPrices: unexpected result type %T", result[0])
	}
	if len(prices) != len(assets) {
		return nil, fmt.Errorf("getAssetsPrices: got %d prices for %d assets", len(prices), len(assets))
	}
	return prices, nil
}
