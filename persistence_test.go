package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"scratchcards/internal/types"
)

func testSetup() types.Setup {
	return types.Setup{
		Cards: []types.CardConfig{
			{ID: "a", Kind: types.ContentText, Content: "Prize A"},
			{ID: "b", Kind: types.ContentImage, Content: "prizes/b.png"},
		},
		NumCards: 2,
		Shuffle:  true,
		Theme:    "gold",
		Surface:  types.Surface{Width: 200, Height: 100, PixelRatio: 2},
	}
}

func TestSaveAndLoadSetup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	sessionID := uuid.NewString()

	if err := saveSetupToFile(dir, sessionID, testSetup()); err != nil {
		t.Fatalf("saveSetupToFile failed: %v", err)
	}

	loaded, err := loadSetupFromFile(dir, sessionID, time.Hour)
	if err != nil {
		t.Fatalf("loadSetupFromFile failed: %v", err)
	}
	if len(loaded.Cards) != 2 || loaded.Cards[1].Content != "prizes/b.png" {
		t.Errorf("Loaded cards = %+v, want the saved cards", loaded.Cards)
	}
	if !loaded.Shuffle || loaded.Theme != "gold" || loaded.Surface.PixelRatio != 2 {
		t.Errorf("Loaded setup = %+v, want the saved options", loaded)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be stamped on save")
	}
}

func TestSaveSetupRejectsInvalidSessionID(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"", "short", "../../etc/passwd"} {
		if err := saveSetupToFile(dir, id, testSetup()); !errors.Is(err, errInvalidSessionID) {
			t.Errorf("saveSetupToFile(%q) error = %v, want errInvalidSessionID", id, err)
		}
	}
}

func TestLoadSetupFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		if _, err := loadSetupFromFile(dir, uuid.NewString(), time.Hour); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist for missing file, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		id := uuid.NewString()
		if err := saveSetupToFile(dir, id, testSetup()); err != nil {
			t.Fatalf("saveSetupToFile failed: %v", err)
		}
		old := time.Now().Add(-2 * time.Hour)
		path := sessionFilePath(dir, id)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
		if _, err := loadSetupFromFile(dir, id, time.Hour); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist for expired file, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("Expected expired session file to be removed")
		}
	})

	t.Run("corrupted", func(t *testing.T) {
		id := uuid.NewString()
		path := sessionFilePath(dir, id)
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := loadSetupFromFile(dir, id, time.Hour); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist for corrupted file, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("Expected corrupted session file to be removed")
		}
	})

	t.Run("empty", func(t *testing.T) {
		id := uuid.NewString()
		if err := os.WriteFile(sessionFilePath(dir, id), []byte(`{"cards":[]}`), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := loadSetupFromFile(dir, id, time.Hour); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist for setup without cards, got %v", err)
		}
	})
}

func TestCleanupOldSessions(t *testing.T) {
	dir := t.TempDir()
	fresh := uuid.NewString()
	stale := uuid.NewString()
	for _, id := range []string{fresh, stale} {
		if err := saveSetupToFile(dir, id, testSetup()); err != nil {
			t.Fatalf("saveSetupToFile failed: %v", err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(sessionFilePath(dir, stale), old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if err := cleanupOldSessions(dir, 24*time.Hour); err != nil {
		t.Fatalf("cleanupOldSessions failed: %v", err)
	}
	if _, err := os.Stat(sessionFilePath(dir, fresh)); err != nil {
		t.Errorf("Expected fresh session file to remain: %v", err)
	}
	if _, err := os.Stat(sessionFilePath(dir, stale)); !os.IsNotExist(err) {
		t.Error("Expected stale session file to be removed")
	}

	if err := cleanupOldSessions(filepath.Join(dir, "missing"), time.Hour); err != nil {
		t.Errorf("cleanupOldSessions on missing dir returned %v, want nil", err)
	}
}
