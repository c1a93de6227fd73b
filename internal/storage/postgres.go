package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertLiquidationSQL = `
INSERT INTO liquidation_events (
	transaction_hash, log_index, block_number, block_timestamp,
	borrower_address, liquidator_address,
	collateral_asset, collateral_symbol, collateral_decimals,
	debt_asset, debt_symbol, debt_decimals,
	seized_amount_raw, collateral_amount, usd_value_seized,
	debt_amount_raw, debt_amount, usd_value_debt,
	receive_a_token
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (transaction_hash, log_index) DO NOTHING`

// Store manages PostgreSQL operations
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL store with connection pooling.
// The shopspring decimal codec is registered on every connection so NUMERIC
// columns bind decimal.Decimal directly.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// InsertLiquidation writes one liquidation row, idempotent under feed
// redelivery: a row with the same (transaction_hash, log_index) already
// present makes this a no-op and returns inserted=false with no error.
func (s *Store) InsertLiquidation(ctx context.Context, rec LiquidationRecord) (bool, error) {
	if rec.SeizedAmountRaw == nil || rec.DebtAmountRaw == nil {
		return false, errors.New("liquidation record has nil raw amounts")
	}

	ct, err := s.pool.Exec(ctx, insertLiquidationSQL,
		rec.TransactionHash,
		int64(rec.LogIndex),
		int64(rec.BlockNumber),
		int64(rec.BlockTimestamp),
		rec.BorrowerAddress,
		rec.LiquidatorAddress,
		rec.CollateralAsset,
		rec.CollateralSymbol,
		int16(rec.CollateralDecimals),
		rec.DebtAsset,
		rec.DebtSymbol,
		int16(rec.DebtDecimals),
		rec.SeizedAmountRaw.String(),
		rec.CollateralAmount,
		rec.UsdValueSeized,
		rec.DebtAmountRaw.String(),
		rec.DebtAmount,
		rec.UsdValueDebt,
		rec.ReceiveAToken,
	)
	if err != nil {
		return false, fmt.Errorf("insert liquidation: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// LoadCheckpoint returns the last processed block for a named feed.
// found is false when the feed has never saved a checkpoint.
func (s *Store) LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error) {
	var lastBlock int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM feed_checkpoints WHERE name = $1`, name)
	if err := row.Scan(&lastBlock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return uint64(lastBlock), true, nil
}

// SaveCheckpoint upserts the last processed block for a named feed.
func (s *Store) SaveCheckpoint(ctx context.Context, name string, lastBlock uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feed_checkpoints (name, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_block = EXCLUDED.last_block, updated_at = now()
	`, name, int64(lastBlock))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// CountLiquidations returns the number of stored liquidation rows.
func (s *Store) CountLiquidations(ctx context.Context) (int64, error) {
	var count int64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM liquidation_events`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count liquidations: %w", err)
	}
	return count, nil
}

// Ping verifies the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
