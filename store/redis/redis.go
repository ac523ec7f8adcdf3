// Package redis provides a Redis implementation of the ledger.Store
// interface. Query records live in a per-user sorted set scored by epoch
// second, which keeps reads ordered and lets compaction rewrite the set
// cheaply.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// Store implements ledger.Store using Redis.
type Store struct {
	client *redis.Client
	config Config
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix namespaces all keys (default: "viajeia:quota").
	KeyPrefix string

	// StatTTL bounds how long daily stat counters live. Zero means no
	// expiry (default: 0).
	StatTTL time.Duration
}

// member is the sorted-set member payload. The id makes every recorded
// query a distinct member even when two land on the same second.
type member struct {
	ID         string `json:"id"`
	Timestamp  int64  `json:"timestamp"`
	OccurredAt string `json:"fecha"`
}

// New creates a new Redis store adapter.
func New(client *redis.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	// Set defaults
	if config.KeyPrefix == "" {
		config.KeyPrefix = "viajeia:quota"
	}

	return &Store{
		client: client,
		config: config,
	}, nil
}

// GetRecords implements ledger.Store.
func (s *Store) GetRecords(ctx context.Context, userID string) ([]ledger.QueryRecord, error) {
	raw, err := s.client.ZRange(ctx, s.recordsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get query records: %w", err)
	}

	out := make([]ledger.QueryRecord, 0, len(raw))
	for _, item := range raw {
		var m member
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			// Skip malformed members rather than failing the whole read.
			continue
		}
		out = append(out, ledger.QueryRecord{Timestamp: m.Timestamp, OccurredAt: m.OccurredAt})
	}
	return out, nil
}

// AppendRecord implements ledger.Store.
func (s *Store) AppendRecord(ctx context.Context, userID string, rec ledger.QueryRecord) error {
	payload, err := json.Marshal(member{
		ID:         uuid.NewString(),
		Timestamp:  rec.Timestamp,
		OccurredAt: rec.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal query record: %w", err)
	}

	err = s.client.ZAdd(ctx, s.recordsKey(userID), redis.Z{
		Score:  float64(rec.Timestamp),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append query record: %w", err)
	}
	return nil
}

// SetRecords implements ledger.Store. Delete and rewrite in one pipeline.
func (s *Store) SetRecords(ctx context.Context, userID string, recs []ledger.QueryRecord) error {
	key := s.recordsKey(userID)

	members := make([]redis.Z, 0, len(recs))
	for _, rec := range recs {
		payload, err := json.Marshal(member{
			ID:         uuid.NewString(),
			Timestamp:  rec.Timestamp,
			OccurredAt: rec.OccurredAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal query record: %w", err)
		}
		members = append(members, redis.Z{Score: float64(rec.Timestamp), Member: payload})
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set query records: %w", err)
	}
	return nil
}

// IncrementDailyStat implements ledger.Store.
func (s *Store) IncrementDailyStat(ctx context.Context, userID, day string) error {
	key := s.statKey(userID, day)

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	if s.config.StatTTL > 0 {
		pipe.Expire(ctx, key, s.config.StatTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment daily stat: %w", err)
	}
	return nil
}

func (s *Store) recordsKey(userID string) string {
	return fmt.Sprintf("%s:%s:consultas", s.config.KeyPrefix, userID)
}

func (s *Store) statKey(userID, day string) string {
	return fmt.Sprintf("%s:%s:estadisticas:%s", s.config.KeyPrefix, userID, day)
}
