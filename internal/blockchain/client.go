package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	rpcTimeout    = 10 * time.Second
	maxRetries    = 3
	retryInterval = 500 * time.Millisecond
)

// Client wraps Ethereum RPC client functionality with failover support
type Client struct {
	failoverClient *FailoverClient
	oracleAddress  common.Address
	oracleABI      abi.ABI
	erc20ABI       abi.ABI

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new blockchain client with failover support.
// oracleAddress is the Aave price oracle the price calls go to.
func NewClient(rpcURLs []string, oracleAddress common.Address) (*Client, error) {
	failoverClient, err := NewFailoverClient(rpcURLs)
	if err != nil {
		return nil, err
	}

	oracle, err := abi.JSON(strings.NewReader(aaveOracleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse oracle ABI: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	return &Client{
		failoverClient: failoverClient,
		oracleAddress:  oracleAddress,
		oracleABI:      oracle,
		erc20ABI:       erc20,
		tsCache:        make(map[uint64]uint64),
	}, nil
}

// Close closes all RPC client connections
func (c *Client) Close() {
	c.failoverClient.Close()
}

// GetHealthyEndpoint exposes a healthy client for health checks.
func (c *Client) GetHealthyEndpoint() (*ethclient.Client, string, error) {
	return c.failoverClient.GetClient()
}

// EndpointsHealth reports per-endpoint health for the health endpoint.
func (c *Client) EndpointsHealth() map[string]bool {
	return c.failoverClient.EndpointsHealth()
}

// LatestBlock returns the current head block number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var number uint64
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		n, err := ethClient.BlockNumber(rpcCtx)
		if err != nil {
			return err
		}
		number = n
		return nil
	})
	return number, err
}

// BlockTimestamp returns a block's timestamp, caching header lookups so a
// batch of events in the same block costs one RPC call.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var header *types.Header
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		h, err := ethClient.HeaderByNumber(rpcCtx, new(big.Int).SetUint64(number))
		if err != nil {
			return err
		}
		header = h
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}

	c.mu.Lock()
	c.tsCache[number] = header.Time
	c.mu.Unlock()
	return header.Time, nil
}

// FilterLogs fetches logs in [fromBlock, toBlock] for the given addresses and
// topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock, toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}

	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	var logs []types.Log
	err := c.retryWithBackoff(rpcCtx, func(ethClient *ethclient.Client) error {
		found, err := ethClient.FilterLogs(rpcCtx, query)
		if err != nil {
			return err
		}
		logs = found
		return nil
	})
	return logs, err
}

// retryWithBackoff executes a function with exponential backoff and automatic
// failover. Each attempt runs against the currently healthy endpoint.
func (c *Client) retryWithBackoff(ctx context.Context, fn func(*ethclient.Client) error) error {
	var lastErr error

	for attempt := range maxRetries {
		if attempt > 0 {
			backoff := retryInterval * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		ethClient, currentURL, err := c.failoverClient.GetClient()
		if err != nil {
			lastErr = err
			continue
		}

		if err := fn(ethClient); err != nil {
			lastErr = err
			c.failoverClient.MarkUnhealthy(currentURL, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
