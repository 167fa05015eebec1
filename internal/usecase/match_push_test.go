package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/infrastructure/backend/memory"
)

// createSyncedDoubles records A+B vs C+D and waits for the upload.
func createSyncedDoubles(t *testing.T, h *harness, a profile.Profile) match.Match {
	t.Helper()

	created, err := h.matches.CreateMatch(t.Context(), CreateMatchInput{
		CreatedBy: a.ID, Team1: []string{a.ID, "B"}, Team2: []string{"C", "D"}, ScoreTeam1: 11, ScoreTeam2: 9,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	h.executor.Wait()
	if local, _ := h.matches.GetMatch(t.Context(), created.ID); !local.IsSynced() {
		t.Fatalf("expected match uploaded before the test starts")
	}
	return created
}

func TestMatchService_VerifyWhileBackendDownIsPushedOnSync(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	mem := h.remote.(*memory.Backend)
	a := setupDoubles(t, h)
	created := createSyncedDoubles(t, h, a)

	mem.SetUnavailable(true)
	verified, err := h.matches.VerifyForTeam(ctx, created.ID, "C")
	if err != nil {
		t.Fatalf("verify must succeed offline: %v", err)
	}
	if !verified.IsVerified {
		t.Fatalf("expected local match verified")
	}
	h.executor.Wait()

	local, _ := h.matches.GetMatch(ctx, created.ID)
	if !local.HasPendingPush() || !slices.Equal(local.Pending.Verifiers, []string{"C"}) {
		t.Fatalf("expected verification queued after failed push, got %+v", local.Pending)
	}

	mem.SetUnavailable(false)
	if remoteCopy, _, _ := mem.GetMatch(ctx, created.ID); remoteCopy.IsVerified {
		t.Fatalf("remote must not be verified before the replay")
	}

	report := h.signIn(t, "acct-a")
	if report.MatchesPushed != 1 || report.MatchesRejected != 0 {
		t.Fatalf("expected one pushed match, got pushed=%d rejected=%d", report.MatchesPushed, report.MatchesRejected)
	}
	remoteCopy, _, err := mem.GetMatch(ctx, created.ID)
	if err != nil {
		t.Fatalf("get remote match: %v", err)
	}
	if !remoteCopy.IsVerified || remoteCopy.Team2VerifiedBy != "C" {
		t.Fatalf("expected remote verified by C, got verified=%v t2=%q", remoteCopy.IsVerified, remoteCopy.Team2VerifiedBy)
	}
	local, _ = h.matches.GetMatch(ctx, created.ID)
	if local.HasPendingPush() || !local.IsSynced() || !local.IsVerified {
		t.Fatalf("expected settled verified local copy, got pending=%+v synced=%v", local.Pending, local.IsSynced())
	}
}

func TestMatchService_ScoreEditWhileSignedOutIsPushedOnSync(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	a := setupDoubles(t, h)
	created := createSyncedDoubles(t, h, a)

	h.session.set("")
	if _, err := h.matches.UpdateScore(ctx, UpdateScoreInput{
		MatchID: created.ID, ScoreTeam1: 11, ScoreTeam2: 7, UpdatedBy: a.ID, ExpectedVersion: 1,
	}); err != nil {
		t.Fatalf("update score: %v", err)
	}
	h.executor.Wait()

	if remoteCopy, _, _ := h.remote.GetMatch(ctx, created.ID); remoteCopy.Version != 1 {
		t.Fatalf("nothing may be pushed while signed out, remote is at v%d", remoteCopy.Version)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if local.Pending == nil || local.Pending.BaseVersion != 1 {
		t.Fatalf("expected score edit queued against v1, got %+v", local.Pending)
	}

	report := h.signIn(t, "acct-a")
	if report.MatchesPushed != 1 {
		t.Fatalf("expected one pushed match, got %d", report.MatchesPushed)
	}
	remoteCopy, _, _ := h.remote.GetMatch(ctx, created.ID)
	if remoteCopy.Version != 2 || remoteCopy.ScoreTeam2 != 7 {
		t.Fatalf("expected remote v2 at 11-7, got v%d %d-%d", remoteCopy.Version, remoteCopy.ScoreTeam1, remoteCopy.ScoreTeam2)
	}
	if remoteCopy.Team1VerifiedBy != a.ID || remoteCopy.Team2VerifiedBy != "" {
		t.Fatalf("expected only the editor's team verified, got t1=%q t2=%q", remoteCopy.Team1VerifiedBy, remoteCopy.Team2VerifiedBy)
	}
	local, _ = h.matches.GetMatch(ctx, created.ID)
	if local.HasPendingPush() || local.Version != 2 || local.ScoreTeam2 != 7 {
		t.Fatalf("expected local copy settled at v2, got v%d pending=%+v", local.Version, local.Pending)
	}
}

func TestMatchService_RapidScoreEditsLandInOrder(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	a := setupDoubles(t, h)
	created := createSyncedDoubles(t, h, a)

	edits := [][2]int{{11, 7}, {11, 8}, {12, 10}, {13, 11}}
	for _, score := range edits {
		if _, err := h.matches.UpdateScore(ctx, UpdateScoreInput{
			MatchID: created.ID, ScoreTeam1: score[0], ScoreTeam2: score[1], UpdatedBy: a.ID,
		}); err != nil {
			t.Fatalf("update score to %v: %v", score, err)
		}
	}
	h.executor.Wait()

	last := edits[len(edits)-1]
	remoteCopy, _, err := h.remote.GetMatch(ctx, created.ID)
	if err != nil {
		t.Fatalf("get remote match: %v", err)
	}
	if remoteCopy.ScoreTeam1 != last[0] || remoteCopy.ScoreTeam2 != last[1] {
		t.Fatalf("expected remote at the last edit %v, got %d-%d", last, remoteCopy.ScoreTeam1, remoteCopy.ScoreTeam2)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if local.HasPendingPush() {
		t.Fatalf("expected every edit pushed, still pending %+v", local.Pending)
	}
	if local.Version != remoteCopy.Version || local.ScoreTeam1 != last[0] || local.ScoreTeam2 != last[1] {
		t.Fatalf("expected local to match remote v%d, got v%d %d-%d", remoteCopy.Version, local.Version, local.ScoreTeam1, local.ScoreTeam2)
	}
}

func TestSyncService_DownloadKeepsUnpushedEdits(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	mem := h.remote.(*memory.Backend)
	a := setupDoubles(t, h)
	created := createSyncedDoubles(t, h, a)

	mem.SetUnavailable(true)
	if _, err := h.matches.UpdateScore(ctx, UpdateScoreInput{
		MatchID: created.ID, ScoreTeam1: 11, ScoreTeam2: 5, UpdatedBy: a.ID,
	}); err != nil {
		t.Fatalf("update score: %v", err)
	}
	h.executor.Wait()
	mem.SetUnavailable(false)

	// Another device edits from the same version after ours was queued.
	if _, err := mem.UpdateMatchScore(ctx, backend.UpdateScoreParams{
		MatchID: created.ID, ScoreTeam1: 11, ScoreTeam2: 13, ExpectedVersion: 1, UpdatedBy: "C",
	}); err != nil {
		t.Fatalf("other device update: %v", err)
	}

	merged, err := h.sync.downloadMatches(ctx, a.ID)
	if err != nil {
		t.Fatalf("download matches: %v", err)
	}
	if merged != 0 {
		t.Fatalf("expected the queued row to be left alone, merged %d", merged)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if local.ScoreTeam2 != 5 || !local.HasPendingPush() {
		t.Fatalf("expected local edit kept, got %d-%d pending=%+v", local.ScoreTeam1, local.ScoreTeam2, local.Pending)
	}

	if err := h.sync.PushPending(ctx, created.ID); !errors.Is(err, ErrMatchVersionConflict) {
		t.Fatalf("expected ErrMatchVersionConflict, got %v", err)
	}
	local, _ = h.matches.GetMatch(ctx, created.ID)
	if local.ScoreTeam2 != 13 || local.Version != 2 || local.HasPendingPush() || !local.IsSynced() {
		t.Fatalf("expected local copy replaced by the winning write, got %d-%d v%d pending=%+v",
			local.ScoreTeam1, local.ScoreTeam2, local.Version, local.Pending)
	}
}

func TestSyncService_PushPending_QueuedScoreThenVerify(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	a := setupDoubles(t, h)
	created := createSyncedDoubles(t, h, a)

	h.session.set("")
	if _, err := h.matches.UpdateScore(ctx, UpdateScoreInput{
		MatchID: created.ID, ScoreTeam1: 11, ScoreTeam2: 6, UpdatedBy: a.ID,
	}); err != nil {
		t.Fatalf("update score: %v", err)
	}
	if _, err := h.matches.VerifyForTeam(ctx, created.ID, "D"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := h.sync.PushPending(ctx, created.ID); err != nil {
		t.Fatalf("push pending: %v", err)
	}
	remoteCopy, _, _ := h.remote.GetMatch(ctx, created.ID)
	if remoteCopy.ScoreTeam2 != 6 || !remoteCopy.IsVerified || remoteCopy.Team2VerifiedBy != "D" {
		t.Fatalf("expected score then verification on remote, got %d-%d verified=%v t2=%q",
			remoteCopy.ScoreTeam1, remoteCopy.ScoreTeam2, remoteCopy.IsVerified, remoteCopy.Team2VerifiedBy)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if local.HasPendingPush() || local.Version != remoteCopy.Version || !local.IsVerified {
		t.Fatalf("expected local settled on remote v%d, got v%d pending=%+v", remoteCopy.Version, local.Version, local.Pending)
	}
}

// editingBackend runs afterUpsert once, right after the first match upload
// lands, to simulate a local edit racing the upload.
type editingBackend struct {
	*memory.Backend
	once        sync.Once
	afterUpsert func()
}

func (b *editingBackend) UpsertMatch(ctx context.Context, item match.Match) error {
	if err := b.Backend.UpsertMatch(ctx, item); err != nil {
		return err
	}
	if b.afterUpsert != nil {
		b.once.Do(b.afterUpsert)
	}
	return nil
}

func TestSyncService_UploadMatch_ResendsRowEditedInFlight(t *testing.T) {
	clock := newTestClock()
	mem := memory.NewBackend()
	mem.SetNow(clock.Now)
	remote := &editingBackend{Backend: mem}
	h := newHarness(t, "device-a", remote, clock)
	ctx := t.Context()
	a := setupDoubles(t, h)

	h.session.set("")
	created, err := h.matches.CreateMatch(ctx, CreateMatchInput{
		CreatedBy: a.ID, Team1: []string{a.ID, "B"}, Team2: []string{"C", "D"}, ScoreTeam1: 11, ScoreTeam2: 9,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	remote.afterUpsert = func() {
		if _, err := h.matches.VerifyForTeam(ctx, created.ID, "C"); err != nil {
			t.Errorf("verify during upload: %v", err)
		}
	}

	report := h.signIn(t, "acct-a")
	h.executor.Wait()
	if report.MatchesUploaded != 1 {
		t.Fatalf("expected one uploaded match, got %d", report.MatchesUploaded)
	}

	remoteCopy, _, _ := mem.GetMatch(ctx, created.ID)
	if !remoteCopy.IsVerified || remoteCopy.Team2VerifiedBy != "C" {
		t.Fatalf("expected the verification made mid-upload on remote, got verified=%v t2=%q",
			remoteCopy.IsVerified, remoteCopy.Team2VerifiedBy)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if !local.IsSynced() || !local.IsVerified || local.HasPendingPush() {
		t.Fatalf("expected verified synced local copy, got synced=%v verified=%v", local.IsSynced(), local.IsVerified)
	}
}

func TestSyncService_SyncAll_AdoptsRemoteWhenReuploadIsRejected(t *testing.T) {
	h := newHarness(t, "device-a", nil, nil)
	ctx := t.Context()
	mem := h.remote.(*memory.Backend)
	a := setupDoubles(t, h)
	seedRemoteProfile(t, mem, registered(h, "E", "acct-e", "Eka"))
	if _, err := h.profiles.ResolveFromIdentityPayload(ctx, identity.Payload{Type: identity.TypeProfile, ProfileID: "E"}); err != nil {
		t.Fatalf("resolve E: %v", err)
	}
	created := createSyncedDoubles(t, h, a)

	// The other side confirms on their own device before this one hears of it.
	if _, err := mem.VerifyMatchForTeam(ctx, created.ID, "C"); err != nil {
		t.Fatalf("remote verify: %v", err)
	}
	result, err := h.claims.UpdateMatchReferences(ctx, "B", "E")
	if err != nil {
		t.Fatalf("update references: %v", err)
	}
	if result.Matches != 1 {
		t.Fatalf("expected the unverified local row rewritten, got %+v", result)
	}

	report := h.signIn(t, "acct-a")
	if report.MatchesUploaded != 0 || report.MatchesRejected != 1 {
		t.Fatalf("expected re-upload rejected, got uploaded=%d rejected=%d", report.MatchesUploaded, report.MatchesRejected)
	}
	remoteCopy, _, _ := mem.GetMatch(ctx, created.ID)
	if !remoteCopy.IsVerified || remoteCopy.Team1Player2 != "B" {
		t.Fatalf("verified remote row must not be overwritten, got verified=%v t1p2=%q", remoteCopy.IsVerified, remoteCopy.Team1Player2)
	}
	local, _ := h.matches.GetMatch(ctx, created.ID)
	if !local.IsSynced() || !local.IsVerified || local.Team1Player2 != "B" {
		t.Fatalf("expected local copy replaced by the verified row, got synced=%v verified=%v t1p2=%q",
			local.IsSynced(), local.IsVerified, local.Team1Player2)
	}
}

// recordingBackend keeps the order of the download calls.
type recordingBackend struct {
	*memory.Backend

	mu    sync.Mutex
	calls []string
}

func (b *recordingBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *recordingBackend) ListKnownUsers(ctx context.Context, ownerAccountID string) ([]knownuser.Edge, error) {
	b.record("ListKnownUsers")
	return b.Backend.ListKnownUsers(ctx, ownerAccountID)
}

func (b *recordingBackend) GetProfile(ctx context.Context, id string) (profile.Profile, bool, error) {
	b.record("GetProfile:" + id)
	return b.Backend.GetProfile(ctx, id)
}

func (b *recordingBackend) ListMatchesByProfile(ctx context.Context, profileID string) ([]match.Match, error) {
	b.record("ListMatchesByProfile")
	return b.Backend.ListMatchesByProfile(ctx, profileID)
}

func (b *recordingBackend) indexOf(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Index(b.calls, call)
}

func TestSyncService_SyncAll_DownloadsKnownUsersBeforeMatches(t *testing.T) {
	clock := newTestClock()
	mem := memory.NewBackend()
	mem.SetNow(clock.Now)
	remote := &recordingBackend{Backend: mem}
	h := newHarness(t, "device-b", remote, clock)
	ctx := t.Context()

	h.bindDevice(t, "device-b", registered(h, "B", "acct-b", "Bima"))
	seedRemoteProfile(t, mem, registered(h, "E", "acct-e", "Eka"))
	// Learned on another device of the same account.
	if err := mem.UpsertKnownUsers(ctx, []knownuser.Edge{knownuser.NewEdge("acct-b", "E", clock.Now())}); err != nil {
		t.Fatalf("seed remote known user: %v", err)
	}
	played, err := match.New(match.NewMatchParams{
		ID: "remote-1", CreatedBy: "E", Team1: []string{"E"}, Team2: []string{"B"}, ScoreTeam1: 11, ScoreTeam2: 6, Now: clock.Now(),
	})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	if err := mem.UpsertMatch(ctx, played); err != nil {
		t.Fatalf("seed remote match: %v", err)
	}

	report := h.signIn(t, "acct-b")
	if report.KnownUsersDownloaded != 1 || report.MatchesDownloaded != 1 {
		t.Fatalf("expected one edge and one match, got edges=%d matches=%d", report.KnownUsersDownloaded, report.MatchesDownloaded)
	}

	edges, err := h.store.KnownUsers.ListByOwner(ctx, "acct-b")
	if err != nil {
		t.Fatalf("list known users: %v", err)
	}
	if len(edges) != 1 || edges[0].KnownProfileID != "E" || edges[0].SyncedAt == nil {
		t.Fatalf("expected synced edge to E, got %+v", edges)
	}
	target, exists, err := h.store.Profiles.GetByID(ctx, "E")
	if err != nil || !exists || target.DisplayName != "Eka" {
		t.Fatalf("expected target profile stored, exists=%v err=%v got %+v", exists, err, target)
	}

	listed, fetched, matches := remote.indexOf("ListKnownUsers"), remote.indexOf("GetProfile:E"), remote.indexOf("ListMatchesByProfile")
	if listed < 0 || fetched < 0 || matches < 0 {
		t.Fatalf("missing download calls: %v", remote.calls)
	}
	if !(listed < fetched && fetched < matches) {
		t.Fatalf("expected edges, then target profile, then matches; got %v", remote.calls)
	}
}
