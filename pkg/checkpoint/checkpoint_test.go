package checkpoint

import (
	"os"
	"testing"
)

func TestLoadMissingCheckpoint(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), "42")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cp, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp != nil {
		t.Error("Expected nil checkpoint when none exists")
	}
	if mgr.Exists() {
		t.Error("Exists must be false before any save")
	}
}

func TestSaveAndLoad(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), "42")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Update("42", "7", "1100000000000000001", 250); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	cp, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp == nil {
		t.Fatal("Expected checkpoint after save")
	}
	if cp.LastMessageID != "1100000000000000001" {
		t.Errorf("Expected high-water mark 1100000000000000001, got %s", cp.LastMessageID)
	}
	if cp.TotalExported != 250 {
		t.Errorf("Expected 250 exported, got %d", cp.TotalExported)
	}
	if cp.CreatedAt.IsZero() || cp.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
	if cp.Version != 1 {
		t.Errorf("Expected version 1, got %d", cp.Version)
	}
}

func TestUpdateAccumulates(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), "42")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Update("42", "7", "100", 10); err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if err := mgr.Update("42", "7", "300", 5); err != nil {
		t.Fatalf("Second update failed: %v", err)
	}

	cp, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp.LastMessageID != "300" {
		t.Errorf("Expected mark 300, got %s", cp.LastMessageID)
	}
	if cp.TotalExported != 15 {
		t.Errorf("Expected 15 total exported, got %d", cp.TotalExported)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(dir, "42")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Update("42", "7", "100", 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := os.Stat(mgr.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file must be renamed away after save")
	}
}

func TestDelete(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), "42")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Update("42", "7", "100", 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := mgr.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mgr.Exists() {
		t.Error("Checkpoint must not exist after delete")
	}

	// Deleting a missing checkpoint is not an error
	if err := mgr.Delete(); err != nil {
		t.Errorf("Deleting missing checkpoint returned error: %v", err)
	}
}
