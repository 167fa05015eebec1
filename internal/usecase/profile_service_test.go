package usecase

import (
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/backend/memory"
)

func TestProfileService_CurrentPlayer_ConcurrentCallsCreateOneProfile(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)

	const callers = 8
	var wg sync.WaitGroup
	got := make([]profile.Profile, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = h.profiles.CurrentPlayer(t.Context())
		}(i)
	}
	wg.Wait()

	for i := range got {
		if errs[i] != nil {
			t.Fatalf("current player: %v", errs[i])
		}
		if got[i].ID != got[0].ID {
			t.Fatalf("expected one profile, got %s and %s", got[0].ID, got[i].ID)
		}
	}

	all, err := h.store.Profiles.List(t.Context())
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one profile, got %d", len(all))
	}
	me := all[0]
	if !me.IsPlaceholder || me.DisplayName != "You" || me.PlaceholderCode != "GST001" {
		t.Fatalf("unexpected current player: %+v", me)
	}

	link, ok, err := h.store.DeviceLinks.GetByDeviceID(t.Context(), "device-a")
	if err != nil || !ok {
		t.Fatalf("expected device link, ok=%v err=%v", ok, err)
	}
	if link.ProfileID != me.ID {
		t.Fatalf("expected link to %s, got %s", me.ID, link.ProfileID)
	}
}

func TestProfileService_CurrentPlayer_ReturnsBoundProfile(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	bound := registered(h, "me", "acct-1", "Rin")
	h.bindDevice(t, "device-a", bound)

	got := h.me(t)
	if got.ID != "me" || got.UserID != "acct-1" {
		t.Fatalf("expected bound profile, got %+v", got)
	}
}

func TestProfileService_CreatePlaceholder_NumbersGuests(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()

	first, err := h.profiles.CreatePlaceholder(ctx, "")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if first.DisplayName != "Guest 1" || !first.IsPlaceholder {
		t.Fatalf("expected Guest 1 placeholder, got %+v", first)
	}

	named, err := h.profiles.CreatePlaceholder(ctx, "  Bima ")
	if err != nil {
		t.Fatalf("create named placeholder: %v", err)
	}
	if named.DisplayName != "Bima" {
		t.Fatalf("expected trimmed name, got %q", named.DisplayName)
	}

	gap := registered(h, "old-guest", "", "Guest 7")
	gap.IsPlaceholder = true
	if err := h.store.Profiles.Upsert(ctx, gap); err != nil {
		t.Fatalf("seed guest: %v", err)
	}

	next, err := h.profiles.CreatePlaceholder(ctx, "")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if next.DisplayName != "Guest 8" {
		t.Fatalf("expected Guest 8, got %q", next.DisplayName)
	}
}

func TestProfileService_ResolveFromIdentityPayload(t *testing.T) {
	t.Run("rejects wrong type", func(t *testing.T) {
		h := newHarness(t, "device-a", nil, nil)

		_, err := h.profiles.ResolveFromIdentityPayload(t.Context(), identity.Payload{Type: "identity:venue", ProfileID: "p1"})
		if !errors.Is(err, identity.ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("prefers remote copy with account id", func(t *testing.T) {
		h := newHarness(t, "device-a", nil, nil)
		ctx := t.Context()

		stale := registered(h, "p1", "", "Old Name")
		stale.IsPlaceholder = true
		if err := h.store.Profiles.Upsert(ctx, stale); err != nil {
			t.Fatalf("seed local: %v", err)
		}
		seedRemoteProfile(t, h.remote, registered(h, "p1", "acct-9", "Sam"))

		got, err := h.profiles.ResolveFromIdentityPayload(ctx, identity.Payload{Type: identity.TypeProfile, ProfileID: "p1", DisplayName: "Sam"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got.UserID != "acct-9" {
			t.Fatalf("expected remote account id, got %q", got.UserID)
		}
		stored, _, _ := h.store.Profiles.GetByID(ctx, "p1")
		if stored.UserID != "acct-9" || stored.IsPlaceholder {
			t.Fatalf("expected remote copy merged locally, got %+v", stored)
		}
	})

	t.Run("falls back to local cache when remote is down", func(t *testing.T) {
		mem := memory.NewBackend()
		h := newHarness(t, "device-a", mem, nil)
		ctx := t.Context()

		cached := registered(h, "p2", "acct-2", "Dewi")
		if err := h.store.Profiles.Upsert(ctx, cached); err != nil {
			t.Fatalf("seed local: %v", err)
		}
		mem.SetUnavailable(true)

		got, err := h.profiles.ResolveFromIdentityPayload(ctx, identity.Payload{Type: identity.TypeProfile, ProfileID: "p2"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got.DisplayName != "Dewi" {
			t.Fatalf("expected cached profile, got %+v", got)
		}
	})

	t.Run("materializes unknown identity as placeholder", func(t *testing.T) {
		h := newHarness(t, "device-a", nil, nil)

		got, err := h.profiles.ResolveFromIdentityPayload(t.Context(), identity.Payload{Type: identity.TypeProfile, ProfileID: "p3", DisplayName: "Nadia"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got.ID != "p3" || got.DisplayName != "Nadia" || !got.IsPlaceholder || got.UserID != "" {
			t.Fatalf("unexpected materialized profile: %+v", got)
		}
	})
}

func TestProfileService_UpdateProfile(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	me := h.me(t)

	name := "Rin"
	venueID := "venue-9"
	updated, err := h.profiles.UpdateProfile(t.Context(), UpdateProfileInput{ProfileID: me.ID, DisplayName: &name, DefaultVenueID: &venueID})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.DisplayName != "Rin" || updated.DefaultVenueID != "venue-9" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if !updated.UpdatedAt.After(me.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}

	blank := " "
	if _, err := h.profiles.UpdateProfile(t.Context(), UpdateProfileInput{ProfileID: me.ID, DisplayName: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.profiles.UpdateProfile(t.Context(), UpdateProfileInput{ProfileID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
