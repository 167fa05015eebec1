package anubis

import (
	"testing"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/account"
)

func TestPrincipalCache_SetGetAndExpire(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Minute, 10)
	cache.now = func() time.Time { return now }

	cache.Set("k1", account.Principal{AccountID: "acct-1"})
	principal, ok := cache.Get("k1")
	if !ok || principal.AccountID != "acct-1" {
		t.Fatalf("expected cache hit for acct-1, got ok=%v %+v", ok, principal)
	}

	now = now.Add(time.Minute)
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
}

func TestPrincipalCache_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Minute, 2)
	cache.now = func() time.Time { return now }

	cache.Set("k1", account.Principal{AccountID: "acct-1"})
	now = now.Add(time.Second)
	cache.Set("k2", account.Principal{AccountID: "acct-2"})
	now = now.Add(time.Second)
	cache.Set("k3", account.Principal{AccountID: "acct-3"})

	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if _, ok := cache.Get("k3"); !ok {
		t.Fatalf("expected newest entry kept")
	}
}

func TestPrincipalCache_ZeroTTLDisables(t *testing.T) {
	cache := newPrincipalCache(0, 10)
	cache.Set("k1", account.Principal{AccountID: "acct-1"})
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected no caching with zero ttl")
	}
}
