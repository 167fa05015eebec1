package local

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/devicelink"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := t.Context()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := store.Profiles.Upsert(ctx, profile.Profile{ID: "p-1", IsPlaceholder: true, DisplayName: "You", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	synced := now.Add(time.Minute)
	if err := store.Matches.Upsert(ctx, match.Match{ID: "m-1", CreatedBy: "p-1", Team1Player1: "p-1", Team2Player1: "p-2", Version: 3, SyncedAt: &synced,
		Pending: &match.PendingPush{BaseVersion: 2, UpdatedBy: "p-1", Verifiers: []string{"p-2"}}}); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if err := store.DeviceLinks.Upsert(ctx, devicelink.Link{ID: "l-1", DeviceID: "dev-1", ProfileID: "p-1"}); err != nil {
		t.Fatalf("upsert link: %v", err)
	}
	if err := store.KnownUsers.Upsert(ctx, knownuser.Edge{OwnerAccountID: "acct-1", KnownProfileID: "p-2"}); err != nil {
		t.Fatalf("upsert known user: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}

	p, ok, err := reopened.Profiles.GetByID(ctx, "p-1")
	if err != nil || !ok {
		t.Fatalf("expected persisted profile, ok=%v err=%v", ok, err)
	}
	if p.DisplayName != "You" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected profile after reopen: %+v", p)
	}

	m, ok, err := reopened.Matches.GetByID(ctx, "m-1")
	if err != nil || !ok {
		t.Fatalf("expected persisted match, ok=%v err=%v", ok, err)
	}
	if m.Version != 3 || m.SyncedAt == nil || !m.SyncedAt.Equal(synced) {
		t.Fatalf("unexpected match after reopen: %+v", m)
	}
	if m.Pending == nil || m.Pending.BaseVersion != 2 || len(m.Pending.Verifiers) != 1 {
		t.Fatalf("expected pending push to survive reopen, got %+v", m.Pending)
	}

	link, ok, err := reopened.DeviceLinks.GetByDeviceID(ctx, "dev-1")
	if err != nil || !ok || link.ProfileID != "p-1" {
		t.Fatalf("unexpected link after reopen: %+v ok=%v err=%v", link, ok, err)
	}

	edges, err := reopened.KnownUsers.ListByOwner(ctx, "acct-1")
	if err != nil || len(edges) != 1 || edges[0].ID != knownuser.EdgeID("acct-1", "p-2") {
		t.Fatalf("unexpected edges after reopen: %+v err=%v", edges, err)
	}
}

func TestProfileRepository_RejectsUnlinkedRealProfile(t *testing.T) {
	store := NewInMemory()

	err := store.Profiles.Upsert(t.Context(), profile.Profile{ID: "p-1", IsPlaceholder: false})
	if !errors.Is(err, profile.ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestDeviceLinkRepository_OneLinkPerDevice(t *testing.T) {
	store := NewInMemory()
	ctx := t.Context()

	if err := store.DeviceLinks.Upsert(ctx, devicelink.Link{ID: "l-1", DeviceID: "dev-1", ProfileID: "p-1"}); err != nil {
		t.Fatalf("first link: %v", err)
	}
	if err := store.DeviceLinks.Upsert(ctx, devicelink.Link{ID: "l-2", DeviceID: "dev-1", ProfileID: "p-2"}); err != nil {
		t.Fatalf("repoint link: %v", err)
	}

	links, err := store.DeviceLinks.ListByProfileID(ctx, "p-1")
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected old profile to have no link, got %+v", links)
	}

	link, ok, _ := store.DeviceLinks.GetByDeviceID(ctx, "dev-1")
	if !ok || link.ProfileID != "p-2" {
		t.Fatalf("expected device repointed to p-2, got %+v", link)
	}
}

func TestMatchRepository_Queries(t *testing.T) {
	store := NewInMemory()
	ctx := t.Context()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	synced := base

	items := []match.Match{
		{ID: "m-1", CreatedBy: "a", Team1Player1: "a", Team2Player1: "b", PlayedAt: base},
		{ID: "m-2", CreatedBy: "a", Team1Player1: "a", Team2Player1: "c", PlayedAt: base.Add(time.Hour), SyncedAt: &synced},
		{ID: "m-3", CreatedBy: "x", Team1Player1: "x", Team2Player1: "b", Team2VerifiedBy: "b", PlayedAt: base.Add(2 * time.Hour)},
	}
	for _, item := range items {
		if err := store.Matches.Upsert(ctx, item); err != nil {
			t.Fatalf("upsert %s: %v", item.ID, err)
		}
	}

	byProfile, _ := store.Matches.ListByProfile(ctx, "a")
	if len(byProfile) != 2 || byProfile[0].ID != "m-2" {
		t.Fatalf("expected newest-first matches for a, got %+v", byProfile)
	}

	unsynced, _ := store.Matches.ListUnsyncedByCreator(ctx, "a")
	if len(unsynced) != 1 || unsynced[0].ID != "m-1" {
		t.Fatalf("expected only m-1 unsynced, got %+v", unsynced)
	}

	referencing, _ := store.Matches.ListReferencing(ctx, "b")
	if len(referencing) != 2 {
		t.Fatalf("expected 2 matches referencing b, got %d", len(referencing))
	}

	if err := store.Matches.Delete(ctx, "m-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Matches.GetByID(ctx, "m-1"); ok {
		t.Fatalf("expected m-1 to be deleted")
	}
}

func TestMatchRepository_ReturnsClones(t *testing.T) {
	store := NewInMemory()
	ctx := t.Context()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	if err := store.Matches.Upsert(ctx, match.Match{ID: "m-1", SyncedAt: &at}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, _, _ := store.Matches.GetByID(ctx, "m-1")
	*got.SyncedAt = at.Add(time.Hour)

	again, _, _ := store.Matches.GetByID(ctx, "m-1")
	if !again.SyncedAt.Equal(at) {
		t.Fatalf("expected stored match to be isolated from caller mutation")
	}
}
