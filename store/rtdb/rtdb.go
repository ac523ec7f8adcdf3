// Package rtdb provides a Firebase Realtime Database implementation of the
// ledger.Store interface. The database offers get/set/push on per-user
// subtrees but no transactions; the compaction write-back is last-writer-wins
// by design.
package rtdb

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"
	"github.com/google/uuid"

	"github.com/viajeia/viajeia-go/pkg/auth"
	"github.com/viajeia/viajeia-go/pkg/ledger"
	"github.com/viajeia/viajeia-go/pkg/session"
)

// Store implements ledger.Store, session.Journal and auth.ProfileStore
// using Firebase Realtime Database.
type Store struct {
	client *db.Client
	config Config
}

// Config holds Realtime Database storage configuration.
type Config struct {
	// RateLimitingPath is the root node for quota records (default: "rateLimiting").
	RateLimitingPath string

	// ConsultsPath is the root node for the consult audit trail (default: "consultas").
	ConsultsPath string

	// UsersPath is the root node for user profiles (default: "usuarios").
	UsersPath string
}

// New creates a new Realtime Database store adapter.
func New(client *db.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("realtime database client is required")
	}

	// Set defaults
	if config.RateLimitingPath == "" {
		config.RateLimitingPath = "rateLimiting"
	}
	if config.ConsultsPath == "" {
		config.ConsultsPath = "consultas"
	}
	if config.UsersPath == "" {
		config.UsersPath = "usuarios"
	}

	return &Store{
		client: client,
		config: config,
	}, nil
}

// GetRecords implements ledger.Store.
func (s *Store) GetRecords(ctx context.Context, userID string) ([]ledger.QueryRecord, error) {
	var raw map[string]ledger.QueryRecord
	if err := s.recordsRef(userID).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to get query records: %w", err)
	}

	out := make([]ledger.QueryRecord, 0, len(raw))
	for _, rec := range raw {
		out = append(out, rec)
	}
	return out, nil
}

// AppendRecord implements ledger.Store. The database assigns the auto id.
func (s *Store) AppendRecord(ctx context.Context, userID string, rec ledger.QueryRecord) error {
	if _, err := s.recordsRef(userID).Push(ctx, rec); err != nil {
		return fmt.Errorf("failed to append query record: %w", err)
	}
	return nil
}

// SetRecords implements ledger.Store. The surviving records are written back
// under fresh generated keys; record identity lives in the value, not the key.
// Writing a string-keyed map keeps the node a map rather than letting the
// database coerce it into an array.
func (s *Store) SetRecords(ctx context.Context, userID string, recs []ledger.QueryRecord) error {
	ref := s.recordsRef(userID)

	if len(recs) == 0 {
		if err := ref.Set(ctx, nil); err != nil {
			return fmt.Errorf("failed to clear query records: %w", err)
		}
		return nil
	}

	keyed := make(map[string]ledger.QueryRecord, len(recs))
	for _, rec := range recs {
		keyed[fmt.Sprintf("r%d-%s", rec.Timestamp, uuid.NewString())] = rec
	}
	if err := ref.Set(ctx, keyed); err != nil {
		return fmt.Errorf("failed to set query records: %w", err)
	}
	return nil
}

// IncrementDailyStat implements ledger.Store. Plain read-then-set; the
// counter is write-only bookkeeping and tolerates lost updates.
func (s *Store) IncrementDailyStat(ctx context.Context, userID, day string) error {
	ref := s.client.NewRef(fmt.Sprintf("%s/%s/estadisticas/%s", s.config.RateLimitingPath, userID, day))

	var count int64
	if err := ref.Get(ctx, &count); err != nil {
		return fmt.Errorf("failed to read daily stat: %w", err)
	}
	if err := ref.Set(ctx, count+1); err != nil {
		return fmt.Errorf("failed to set daily stat: %w", err)
	}
	return nil
}

// SaveConsult implements session.Journal. The audit trail is write-only and
// never read back by core logic.
func (s *Store) SaveConsult(ctx context.Context, userID string, c session.Consult) error {
	ref := s.client.NewRef(fmt.Sprintf("%s/%s", s.config.ConsultsPath, userID))
	if _, err := ref.Push(ctx, c); err != nil {
		return fmt.Errorf("failed to save consult: %w", err)
	}
	return nil
}

// SaveProfile implements auth.ProfileStore.
func (s *Store) SaveProfile(ctx context.Context, userID string, p auth.Profile) error {
	ref := s.client.NewRef(fmt.Sprintf("%s/%s", s.config.UsersPath, userID))
	if err := ref.Set(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Store) recordsRef(userID string) *db.Ref {
	return s.client.NewRef(fmt.Sprintf("%s/%s/consultas", s.config.RateLimitingPath, userID))
}
