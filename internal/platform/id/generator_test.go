package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator(t *testing.T) {
	gen := NewUUIDGenerator()

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %s twice", first)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected uuid, got %q: %v", first, err)
	}
}

func TestRandomCodeGenerator(t *testing.T) {
	gen := NewRandomCodeGenerator(0)

	code, err := gen.NewCode()
	if err != nil {
		t.Fatalf("new code: %v", err)
	}
	if len(code) != DefaultCodeLength {
		t.Fatalf("expected length %d, got %q", DefaultCodeLength, code)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("unexpected rune %q in code %q", r, code)
		}
	}
}
