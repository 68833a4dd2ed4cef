package shell

import (
	"path/filepath"
	"testing"
)

func TestFileModeStoreRoundTrip(t *testing.T) {
	store := &FileModeStore{Path: filepath.Join(t.TempDir(), "mode.json")}

	if err := store.Save("radio"); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	mode, err := store.Load()
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if mode != "radio" {
		t.Fatalf("expected the saved mode, got %q", mode)
	}
}

func TestFileModeStoreMissingFileIsEmpty(t *testing.T) {
	store := &FileModeStore{Path: filepath.Join(t.TempDir(), "absent.json")}

	mode, err := store.Load()
	if err != nil {
		t.Fatalf("expected a missing file to load cleanly, got %v", err)
	}
	if mode != "" {
		t.Fatalf("expected an empty selection, got %q", mode)
	}
}
