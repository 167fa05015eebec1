package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		targetErr error
	}{
		{name: "not found", err: &pq.Error{Code: "LV404", Message: "match m1 not found"}, targetErr: backend.ErrNotFound},
		{name: "version conflict", err: &pq.Error{Code: "LV409", Message: "expected 1 got 2"}, targetErr: backend.ErrVersionConflict},
		{name: "already verified", err: &pq.Error{Code: "LV423", Message: "match m1 is verified"}, targetErr: match.ErrMatchAlreadyVerified},
		{name: "not a participant", err: &pq.Error{Code: "LV403", Message: "profile x"}, targetErr: match.ErrNotAParticipant},
		{name: "connection failure", err: &pq.Error{Code: "08006", Message: "connection failure"}, targetErr: backend.ErrUnavailable},
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), targetErr: backend.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			if !errors.Is(got, tc.targetErr) {
				t.Fatalf("expected %v, got %v", tc.targetErr, got)
			}
		})
	}

	t.Run("version conflict is not not-found", func(t *testing.T) {
		got := mapError(&pq.Error{Code: "LV409"})
		if errors.Is(got, backend.ErrNotFound) {
			t.Fatalf("conflict must stay distinguishable from not found")
		}
	})

	t.Run("passes unrelated errors through", func(t *testing.T) {
		in := &pq.Error{Code: "23505", Message: "duplicate key"}
		if got := mapError(in); got != error(in) {
			t.Fatalf("expected error unchanged, got %v", got)
		}
		if mapError(nil) != nil {
			t.Fatalf("expected nil for nil")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatalf("expected unrelated error not to match")
	}
}

func TestUpsertSuffix(t *testing.T) {
	got := upsertSuffix("id", []string{"id", "name", "created_at", "updated_at"}, "created_at")
	want := "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at"
	if got != want {
		t.Fatalf("unexpected suffix:\nwant: %s\ngot:  %s", want, got)
	}

	if got := upsertSuffix("id", []string{"id"}); got != "ON CONFLICT (id) DO NOTHING" {
		t.Fatalf("unexpected suffix for key-only table: %s", got)
	}
}

func TestGuardedMatchUpsert(t *testing.T) {
	got := guardedMatchUpsert()
	if !strings.HasPrefix(got, "ON CONFLICT (id) DO UPDATE SET ") {
		t.Fatalf("expected an upsert on id, got %s", got)
	}
	if strings.Contains(got, "created_at = EXCLUDED.created_at") {
		t.Fatalf("created_at must not be overwritten: %s", got)
	}
	wantGuard := " WHERE matches.is_verified = FALSE AND matches.version <= EXCLUDED.version"
	if !strings.HasSuffix(got, wantGuard) {
		t.Fatalf("expected verified and version guard, got %s", got)
	}
	for _, col := range []string{"score_team1", "version", "is_verified", "updated_at"} {
		if !strings.Contains(got, col+" = EXCLUDED."+col) {
			t.Fatalf("expected %s to be updated, got %s", col, got)
		}
	}
}

func TestMatchRowRoundTripKeepsNulls(t *testing.T) {
	verifiedAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	synced := verifiedAt
	in := match.Match{
		ID:              "m1",
		CreatedBy:       "A",
		Team1Player1:    "A",
		Team2Player1:    "C",
		ScoreTeam1:      11,
		ScoreTeam2:      4,
		Version:         3,
		Team1VerifiedBy: "A",
		Team1VerifiedAt: &verifiedAt,
		Fingerprint:     "abc",
		PlayedAt:        verifiedAt,
		SyncedAt:        &synced,
		CreatedAt:       verifiedAt,
		UpdatedAt:       verifiedAt,
	}

	row := matchRow(in)
	if row.Team1Player2.Valid || row.VenueID.Valid || row.VerifiedBy.Valid {
		t.Fatalf("expected empty ids stored as NULL, got %+v", row)
	}

	out := row.toDomain()
	if out.SyncedAt != nil {
		t.Fatalf("synced_at must not survive a trip through the database")
	}
	if out.Team1VerifiedAt == nil || !out.Team1VerifiedAt.Equal(verifiedAt) || out.Team1VerifiedAt.Location() != time.UTC {
		t.Fatalf("expected verification time normalized to UTC, got %v", out.Team1VerifiedAt)
	}
	if out.Team1Player2 != "" || out.Team2Player1 != "C" || out.Version != 3 {
		t.Fatalf("unexpected match: %+v", out)
	}
}

func TestKnownUserRowUsesDeterministicID(t *testing.T) {
	row := knownUserRow(knownuser.Edge{ID: "stale", OwnerAccountID: "acct-a", KnownProfileID: "p1"})
	if row.ID != "acct-a::p1" {
		t.Fatalf("unexpected edge id: %s", row.ID)
	}
}
