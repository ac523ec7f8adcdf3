package favorites_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/viajeia/viajeia-go/pkg/favorites"
)

func newTestStore(t *testing.T) *favorites.Store {
	t.Helper()

	store, err := favorites.Open(filepath.Join(t.TempDir(), "favorites.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndList(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("user1", favorites.Favorite{
		Destination: "Roma",
		Question:    "Quiero viajar a Roma",
		Answer:      "¡Roma es una gran elección!",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected an id to be assigned")
	}
	if saved.SavedAt == "" {
		t.Error("Expected SavedAt to be assigned")
	}

	list, err := store.List("user1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Destination != "Roma" {
		t.Errorf("Unexpected favorites: %+v", list)
	}

	// Other users see nothing.
	other, err := store.List("user2")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no favorites for user2, got %d", len(other))
	}
}

func TestGet(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("user1", favorites.Favorite{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get("user1", saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Question != "q" || got.Answer != "a" {
		t.Errorf("Unexpected favorite: %+v", got)
	}

	if _, err := store.Get("user1", "missing"); !errors.Is(err, favorites.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get("user2", saved.ID); !errors.Is(err, favorites.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other user, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("user1", favorites.Favorite{Question: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Remove("user1", saved.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove("user1", saved.ID); !errors.Is(err, favorites.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second remove, got %v", err)
	}

	list, err := store.List("user1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no favorites, got %d", len(list))
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Save("user1", favorites.Favorite{Question: "q", Answer: "a"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if err := store.Clear("user1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	list, err := store.List("user1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no favorites after clear, got %d", len(list))
	}

	// Clearing an unknown user is a no-op.
	if err := store.Clear("user2"); err != nil {
		t.Errorf("Expected no error clearing unknown user, got %v", err)
	}
}

func TestSaveRequiresUserID(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save("", favorites.Favorite{Question: "q"}); err == nil {
		t.Error("Expected error for empty user id")
	}
}
