// Package favorites is a local, per-user favorites cache backed by a bbolt
// file. It is a display cache only; the backend never reads it.
package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a favorite id does not exist for the user.
var ErrNotFound = errors.New("favorite not found")

// Favorite is one saved answer.
type Favorite struct {
	ID              string                 `json:"id"`
	Destination     string                 `json:"destino,omitempty"`
	Dates           string                 `json:"fechas,omitempty"`
	Question        string                 `json:"pregunta"`
	Answer          string                 `json:"respuesta"`
	Photos          []string               `json:"fotos,omitempty"`
	DestinationInfo map[string]interface{} `json:"infoDestino,omitempty"`
	SavedAt         string                 `json:"fechaGuardado"`
}

// Store keeps favorites in one bucket per user id.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the favorites file.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites file: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a favorite for the user, assigning ID and SavedAt when empty,
// and returns the stored value.
func (s *Store) Save(userID string, fav Favorite) (Favorite, error) {
	if userID == "" {
		return Favorite{}, fmt.Errorf("user id is required")
	}
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.SavedAt == "" {
		fav.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(fav)
	if err != nil {
		return Favorite{}, fmt.Errorf("failed to marshal favorite: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(fav.ID), payload)
	})
	if err != nil {
		return Favorite{}, fmt.Errorf("failed to save favorite: %w", err)
	}
	return fav, nil
}

// List returns all favorites of the user in key order.
func (s *Store) List(userID string) ([]Favorite, error) {
	var out []Favorite

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(userID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var fav Favorite
			if err := json.Unmarshal(v, &fav); err != nil {
				// Skip entries a newer version wrote in another format.
				return nil
			}
			out = append(out, fav)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return out, nil
}

// Get returns one favorite by id.
func (s *Store) Get(userID, id string) (Favorite, error) {
	var fav Favorite

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(userID))
		if bucket == nil {
			return ErrNotFound
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return ErrNotFound
		}
		return json.Unmarshal(payload, &fav)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Favorite{}, ErrNotFound
		}
		return Favorite{}, fmt.Errorf("failed to get favorite: %w", err)
	}
	return fav, nil
}

// Remove deletes one favorite by id.
func (s *Store) Remove(userID, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(userID))
		if bucket == nil {
			return ErrNotFound
		}
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// Clear drops all favorites of the user.
func (s *Store) Clear(userID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(userID)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(userID))
	})
	if err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}
