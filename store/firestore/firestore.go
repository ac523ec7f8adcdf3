// Package firestore provides a Cloud Firestore implementation of the
// ledger.Store interface for deployments that keep quota state in Firestore
// instead of the Realtime Database.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// Store implements ledger.Store using Cloud Firestore.
type Store struct {
	client *firestore.Client
	config Config
}

// Config holds Firestore storage configuration.
type Config struct {
	// RateLimitingCollection is the collection holding per-user quota docs
	// (default: "rateLimiting").
	RateLimitingCollection string
}

// New creates a new Firestore store adapter.
func New(client *firestore.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}

	// Set defaults
	if config.RateLimitingCollection == "" {
		config.RateLimitingCollection = "rateLimiting"
	}

	return &Store{
		client: client,
		config: config,
	}, nil
}

// GetRecords implements ledger.Store.
func (s *Store) GetRecords(ctx context.Context, userID string) ([]ledger.QueryRecord, error) {
	iter := s.recordsCol(userID).Documents(ctx)
	defer iter.Stop()

	var out []ledger.QueryRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("get query records", err)
		}

		data := snap.Data()
		rec := ledger.QueryRecord{
			Timestamp:  getInt64(data, "timestamp"),
			OccurredAt: getString(data, "fecha"),
		}
		out = append(out, rec)
	}
	return out, nil
}

// AppendRecord implements ledger.Store.
func (s *Store) AppendRecord(ctx context.Context, userID string, rec ledger.QueryRecord) error {
	doc := s.recordsCol(userID).NewDoc()
	_, err := doc.Create(ctx, map[string]interface{}{
		"timestamp": rec.Timestamp,
		"fecha":     rec.OccurredAt,
	})
	if err != nil {
		return classify("append query record", err)
	}
	return nil
}

// SetRecords implements ledger.Store. Firestore has no subtree replace, so
// the write-back deletes every existing record doc and recreates the
// survivors in one bulk writer flush.
func (s *Store) SetRecords(ctx context.Context, userID string, recs []ledger.QueryRecord) error {
	col := s.recordsCol(userID)

	iter := col.Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return classify("set query records", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return classify("set query records", err)
		}
	}

	for _, rec := range recs {
		_, err := bw.Create(col.NewDoc(), map[string]interface{}{
			"timestamp": rec.Timestamp,
			"fecha":     rec.OccurredAt,
		})
		if err != nil {
			return classify("set query records", err)
		}
	}

	bw.End()
	return nil
}

// IncrementDailyStat implements ledger.Store using Firestore's atomic
// field increment.
func (s *Store) IncrementDailyStat(ctx context.Context, userID, day string) error {
	doc := s.client.Collection(s.config.RateLimitingCollection).Doc(userID)
	_, err := doc.Set(ctx, map[string]interface{}{
		"estadisticas": map[string]interface{}{
			day: firestore.Increment(1),
		},
	}, firestore.MergeAll)
	if err != nil {
		return classify("increment daily stat", err)
	}
	return nil
}

func (s *Store) recordsCol(userID string) *firestore.CollectionRef {
	return s.client.Collection(s.config.RateLimitingCollection).Doc(userID).Collection("consultas")
}

// classify wraps transport-level failures as ErrStoreUnavailable so the
// ledger's fail-open path can treat them uniformly.
func classify(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w: %v", op, ledger.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func getInt64(data map[string]interface{}, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
