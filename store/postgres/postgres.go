// Package postgres provides a PostgreSQL implementation of the ledger.Store
// interface using a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// Schema creates the tables the store needs. Apply it with your migration
// tooling of choice or via EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS query_records (
	id          BIGSERIAL PRIMARY KEY,
	user_id     TEXT NOT NULL,
	ts          BIGINT NOT NULL,
	occurred_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS query_records_user_ts ON query_records (user_id, ts);

CREATE TABLE IF NOT EXISTS daily_stats (
	user_id TEXT NOT NULL,
	day     TEXT NOT NULL,
	count   BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, day)
);
`

// Store implements ledger.Store using PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL store adapter.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Apply pool settings
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool:   pool,
		config: config,
	}, nil
}

// EnsureSchema creates the required tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the PostgreSQL connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the PostgreSQL connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetRecords implements ledger.Store.
func (s *Store) GetRecords(ctx context.Context, userID string) ([]ledger.QueryRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ts, occurred_at FROM query_records WHERE user_id = $1 ORDER BY ts`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get query records: %w", err)
	}
	defer rows.Close()

	var out []ledger.QueryRecord
	for rows.Next() {
		var rec ledger.QueryRecord
		if err := rows.Scan(&rec.Timestamp, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query records: %w", err)
	}
	return out, nil
}

// AppendRecord implements ledger.Store.
func (s *Store) AppendRecord(ctx context.Context, userID string, rec ledger.QueryRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO query_records (user_id, ts, occurred_at) VALUES ($1, $2, $3)`,
		userID, rec.Timestamp, rec.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append query record: %w", err)
	}
	return nil
}

// SetRecords implements ledger.Store. Delete and rewrite in one transaction
// so concurrent readers never observe a half-compacted history.
func (s *Store) SetRecords(ctx context.Context, userID string, recs []ledger.QueryRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM query_records WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear query records: %w", err)
	}

	if len(recs) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			batch.Queue(
				`INSERT INTO query_records (user_id, ts, occurred_at) VALUES ($1, $2, $3)`,
				userID, rec.Timestamp, rec.OccurredAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to set query records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// IncrementDailyStat implements ledger.Store with an atomic upsert.
func (s *Store) IncrementDailyStat(ctx context.Context, userID, day string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO daily_stats (user_id, day, count)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, day) DO UPDATE SET count = daily_stats.count + 1`,
		userID, day)
	if err != nil {
		return fmt.Errorf("failed to increment daily stat: %w", err)
	}
	return nil
}
