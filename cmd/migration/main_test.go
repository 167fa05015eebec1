package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1775030520, 0)

	paths, err := createMigration(dir, " Add_Rating_Column ", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	want := filepath.Join(dir, "1775030520_add_rating_column")
	if paths[0] != want+".up.sql" || paths[1] != want+".down.sql" {
		t.Fatalf("unexpected paths: %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}

	if _, err := createMigration(dir, "add_rating_column", now); err == nil {
		t.Fatalf("expected an error when the files already exist")
	}
	if _, err := createMigration(dir, "drop table;", now); err == nil || !strings.Contains(err.Error(), "snake_case") {
		t.Fatalf("expected name validation error, got %v", err)
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsDir(dir)
	if err != nil || got != dir {
		t.Fatalf("expected override %s, got %s (%v)", dir, got, err)
	}

	if _, err := resolveMigrationsDir(filepath.Join(dir, "missing")); err == nil {
		// The defaults may exist when the test runs from the repo root.
		t.Skip("default migrations dir present")
	}
}

func TestParsePositive(t *testing.T) {
	if n, err := parsePositive(" 3 ", "down steps"); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d (%v)", n, err)
	}
	for _, raw := range []string{"0", "-1", "x"} {
		if _, err := parsePositive(raw, "down steps"); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
