package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/devicelink"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/backend/memory"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/repository/local"
	"github.com/riskibarqy/match-ledger/internal/platform/device"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/platform/worker"
)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
}

// Now advances one second per call so every write gets a distinct timestamp.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

type staticIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (g *staticIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

type staticCodeGenerator string

func (g staticCodeGenerator) NewCode() (string, error) {
	return string(g), nil
}

type testSession struct {
	mu        sync.Mutex
	accountID string
}

func (s *testSession) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

func (s *testSession) set(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = accountID
}

type harness struct {
	clock    *testClock
	store    *local.Store
	remote   backend.Backend
	executor *worker.Executor
	session  *testSession

	profiles *ProfileService
	sync     *SyncService
	matches  *MatchService
	claims   *ClaimService
}

// newHarness wires one device against remote. Devices sharing a remote and a
// clock behave like separate phones talking to the same backend.
func newHarness(t *testing.T, deviceID string, remote backend.Backend, clock *testClock) *harness {
	t.Helper()

	if clock == nil {
		clock = newTestClock()
	}
	if remote == nil {
		mem := memory.NewBackend()
		mem.SetNow(clock.Now)
		remote = mem
	}

	executor, err := worker.NewExecutor(4, 5*time.Second, logging.NewNop())
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	t.Cleanup(func() {
		_ = executor.Close(context.Background())
	})

	store := local.NewInMemory()
	ids := &staticIDGenerator{prefix: deviceID}
	session := &testSession{}
	logger := logging.NewNop()

	profiles := NewProfileService(store.Profiles, store.DeviceLinks, device.Static(deviceID), remote, ids, staticCodeGenerator("GST001"), logger)
	profiles.now = clock.Now
	syncService := NewSyncService(profiles, store.Profiles, store.Matches, store.KnownUsers, store.Venues, remote, logger, 4)
	syncService.now = clock.Now
	matches := NewMatchService(store.Matches, store.Venues, syncService, remote, session, executor, ids, logger)
	matches.now = clock.Now
	claims := NewClaimService(profiles, syncService, store.Profiles, store.Matches, store.DeviceLinks, store.KnownUsers, remote, session, logger)
	claims.now = clock.Now

	return &harness{
		clock:    clock,
		store:    store,
		remote:   remote,
		executor: executor,
		session:  session,
		profiles: profiles,
		sync:     syncService,
		matches:  matches,
		claims:   claims,
	}
}

func (h *harness) me(t *testing.T) profile.Profile {
	t.Helper()

	me, err := h.profiles.CurrentPlayer(t.Context())
	if err != nil {
		t.Fatalf("current player: %v", err)
	}
	return me
}

func (h *harness) signIn(t *testing.T, accountID string) SyncReport {
	t.Helper()

	h.session.set(accountID)
	report, err := h.sync.SyncAll(t.Context(), accountID)
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if report.FailedPhase != "" {
		t.Fatalf("sync stopped at %s: %s", report.FailedPhase, report.FailureReason)
	}
	return report
}

// bindDevice makes an existing profile the device's current player.
func (h *harness) bindDevice(t *testing.T, deviceID string, item profile.Profile) {
	t.Helper()

	if err := h.store.Profiles.Upsert(t.Context(), item); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	now := h.clock.Now()
	link := devicelink.Link{ID: "link-" + deviceID, DeviceID: deviceID, ProfileID: item.ID, CreatedAt: now, UpdatedAt: now}
	if err := h.store.DeviceLinks.Upsert(t.Context(), link); err != nil {
		t.Fatalf("seed device link: %v", err)
	}
}

func registered(h *harness, id, accountID, name string) profile.Profile {
	now := h.clock.Now()
	return profile.Profile{ID: id, UserID: accountID, DisplayName: name, CreatedAt: now, UpdatedAt: now}
}

func seedRemoteProfile(t *testing.T, remote backend.Backend, item profile.Profile) {
	t.Helper()

	if err := remote.UpsertProfile(t.Context(), item); err != nil {
		t.Fatalf("seed remote profile: %v", err)
	}
}
