package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/matrixise/liquidation-tracker/internal/pipeline"
)

// CheckpointName identifies this feed's row in feed_checkpoints.
const CheckpointName = "liquidation_feed"

const defaultChunkSize = 2000

// ChainSource is the slice of the blockchain client the poller needs.
type ChainSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Checkpoints persists scan progress between runs.
type Checkpoints interface {
	LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error)
	SaveCheckpoint(ctx context.Context, name string, lastBlock uint64) error
}

// EventProcessor consumes decoded liquidation events.
type EventProcessor interface {
	Process(ctx context.Context, ev pipeline.Event) error
}

// ErrorSink receives feed-level failures that skip an event.
type ErrorSink interface {
	LogError(context string, err error)
}

// Poller scans the pool contract for LiquidationCall logs in block chunks,
// resuming from the stored checkpoint. Per-event failures are logged and
// skipped; the checkpoint advances per chunk, so a crash replays at most one
// chunk and the idempotent store absorbs the redelivery.
type Poller struct {
	chain       ChainSource
	checkpoints Checkpoints
	processor   EventProcessor
	sink        ErrorSink

	poolAddress common.Address
	startBlock  uint64
	chunkSize   uint64
}

// NewPoller builds a poller. startBlock is where the scan begins when no
// checkpoint exists yet; chunkSize <= 0 selects the default.
func NewPoller(
	chain ChainSource,
	checkpoints Checkpoints,
	processor EventProcessor,
	sink ErrorSink,
	poolAddress common.Address,
	startBlock uint64,
	chunkSize uint64,
) *Poller {
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
	}
	return &Poller{
		chain:       chain,
		checkpoints: checkpoints,
		processor:   processor,
		sink:        sink,
		poolAddress: poolAddress,
		startBlock:  startBlock,
		chunkSize:   chunkSize,
	}
}

// Poll scans from the checkpoint (or the configured start block) to the
// current head. It returns the number of events processed successfully.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	from := p.startBlock
	if last, found, err := p.checkpoints.LoadCheckpoint(ctx, CheckpointName); err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	} else if found && last+1 > from {
		from = last + 1
	}

	head, err := p.chain.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	if from > head {
		slog.Debug("Feed is caught up", "from", from, "head", head)
		return 0, nil
	}

	slog.Info("Scanning for liquidations",
		"from", from, "to", head, "chunk_size", p.chunkSize)

	processed := 0
	for chunkFrom := from; chunkFrom <= head; chunkFrom += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		chunkTo := min(chunkFrom+p.chunkSize-1, head)
		n, err := p.scanChunk(ctx, chunkFrom, chunkTo)
		processed += n
		if err != nil {
			return processed, err
		}

		if err := p.checkpoints.SaveCheckpoint(ctx, CheckpointName, chunkTo); err != nil {
			return processed, fmt.Errorf("save checkpoint at %d: %w", chunkTo, err)
		}
	}

	if processed > 0 {
		slog.Info("Scan complete", "events", processed, "head", head)
	}
	return processed, nil
}

func (p *Poller) scanChunk(ctx context.Context, fromBlock, toBlock uint64) (int, error) {
	logs, err := p.chain.FilterLogs(ctx, fromBlock, toBlock,
		[]common.Address{p.poolAddress}, []common.Hash{LiquidationTopicID})
	if err != nil {
		return 0, fmt.Errorf("filter logs [%d, %d]: %w", fromBlock, toBlock, err)
	}

	processed := 0
	for _, lg := range logs {
		if lg.Removed {
			continue
		}

		ev, err := DecodeLiquidation(lg)
		if err != nil {
			p.sink.LogError("liquidation decode failed",
				fmt.Errorf("tx %s log %d: %w", lg.TxHash.Hex(), lg.Index, err))
			continue
		}

		ts, err := p.chain.BlockTimestamp(ctx, ev.BlockNumber)
		if err != nil {
			p.sink.LogError("block timestamp lookup failed",
				fmt.Errorf("block %d: %w", ev.BlockNumber, err))
			continue
		}
		ev.BlockTimestamp = ts

		if err := p.processor.Process(ctx, ev); err == nil {
			processed++
		}
	}
	return processed, nil
}
