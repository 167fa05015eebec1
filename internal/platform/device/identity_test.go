package device

import (
	"path/filepath"
	"testing"
)

func TestFileIdentity_StableAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "device_id")

	first, err := NewFileIdentity(path).DeviceID(t.Context())
	if err != nil {
		t.Fatalf("first device id: %v", err)
	}
	second, err := NewFileIdentity(path).DeviceID(t.Context())
	if err != nil {
		t.Fatalf("second device id: %v", err)
	}
	if first == "" || first != second {
		t.Fatalf("expected stable device id, got %q and %q", first, second)
	}
}

func TestStatic(t *testing.T) {
	if _, err := Static("  ").DeviceID(t.Context()); err == nil {
		t.Fatalf("expected error for empty static id")
	}
	id, err := Static("dev-1").DeviceID(t.Context())
	if err != nil || id != "dev-1" {
		t.Fatalf("unexpected static id %q err=%v", id, err)
	}
}
