package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/reconcile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultSyncFanout = 8

const (
	PhaseLinkDevice       = "link_device"
	PhaseUploadProfiles   = "upload_profiles"
	PhaseUploadMatches    = "upload_matches"
	PhaseDownloadProfiles = "download_profiles"
	PhaseKnownUsers       = "known_users"
	PhaseDownloadMatches  = "download_matches"
)

var errLocalStore = errors.New("local store failure")

// SyncReport summarizes one SyncAll pass. FailedPhase is set when a remote
// failure stopped the pass early.
type SyncReport struct {
	Skipped              bool   `json:"skipped"`
	AccountID            string `json:"accountId,omitempty"`
	ProfileID            string `json:"profileId,omitempty"`
	ProfilesUploaded     int    `json:"profilesUploaded"`
	MatchesUploaded      int    `json:"matchesUploaded"`
	MatchesBlocked       int    `json:"matchesBlocked"`
	MatchesPushed        int    `json:"matchesPushed"`
	MatchesRejected      int    `json:"matchesRejected"`
	ProfilesDownloaded   int    `json:"profilesDownloaded"`
	KnownUsersUploaded   int    `json:"knownUsersUploaded"`
	KnownUsersDownloaded int    `json:"knownUsersDownloaded"`
	MatchesDownloaded    int    `json:"matchesDownloaded"`
	FailedPhase          string `json:"failedPhase,omitempty"`
	FailureReason        string `json:"failureReason,omitempty"`
}

type SyncService struct {
	profileService *ProfileService
	profiles       profile.Repository
	matches        match.Repository
	knownUsers     knownuser.Repository
	venues         venue.Repository
	remote         backend.Backend
	logger         *logging.Logger
	fanout         int

	// matchLocks guards read-modify-write of one local match row. pushLanes
	// is held for a whole upload or push so remote writes for a match never
	// overlap. Take a lane before a row lock, never the other way round.
	matchLocks *keyedMutex
	pushLanes  *keyedMutex

	running atomic.Bool
	now     func() time.Time
}

func NewSyncService(
	profileService *ProfileService,
	profiles profile.Repository,
	matches match.Repository,
	knownUsers knownuser.Repository,
	venues venue.Repository,
	remote backend.Backend,
	logger *logging.Logger,
	fanout int,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if fanout <= 0 {
		fanout = defaultSyncFanout
	}

	return &SyncService{
		profileService: profileService,
		profiles:       profiles,
		matches:        matches,
		knownUsers:     knownUsers,
		venues:         venues,
		remote:         remote,
		logger:         logger.Named("sync"),
		fanout:         fanout,
		matchLocks:     newKeyedMutex(),
		pushLanes:      newKeyedMutex(),
		now:            time.Now,
	}
}

// SyncAll runs one full bidirectional pass for the account. Phases run in
// order and a remote failure stops the rest; the error is only returned for
// ErrProfileConflict and local storage failures. A call made while another
// pass is running is dropped.
func (s *SyncService) SyncAll(ctx context.Context, accountID string) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncAll", accountAttr(accountID))
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return SyncReport{}, fmt.Errorf("%w: account_id is required", ErrUnauthorized)
	}

	if !s.running.CompareAndSwap(false, true) {
		s.logger.InfoContext(ctx, "sync already running, dropping call", "account_id", accountID)
		return SyncReport{AccountID: accountID, Skipped: true}, nil
	}
	defer s.running.Store(false)

	report := SyncReport{AccountID: accountID}
	startedAt := s.now()

	me, err := s.linkDevice(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrProfileConflict) || errors.Is(err, errLocalStore) {
			s.logger.WarnContext(ctx, "sync aborted", "account_id", accountID, "phase", PhaseLinkDevice, "error", err)
			return report, err
		}
		return s.stop(ctx, report, PhaseLinkDevice, err), nil
	}
	report.ProfileID = me.ID

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{PhaseUploadProfiles, func(ctx context.Context) (err error) {
			report.ProfilesUploaded, err = s.uploadProfiles(ctx, accountID)
			return err
		}},
		{PhaseUploadMatches, func(ctx context.Context) error {
			uploads, err := s.uploadMatches(ctx, me.ID)
			report.MatchesUploaded, report.MatchesBlocked = uploads.uploaded, uploads.blocked
			report.MatchesRejected = uploads.rejected
			if err != nil {
				return err
			}
			pushed, rejected, err := s.pushPendingMatches(ctx)
			report.MatchesPushed = pushed
			report.MatchesRejected += rejected
			return err
		}},
		{PhaseDownloadProfiles, func(ctx context.Context) (err error) {
			report.ProfilesDownloaded, err = s.downloadProfiles(ctx, accountID)
			return err
		}},
		{PhaseKnownUsers, func(ctx context.Context) (err error) {
			report.KnownUsersUploaded, report.KnownUsersDownloaded, err = s.syncKnownUsers(ctx, accountID)
			return err
		}},
		{PhaseDownloadMatches, func(ctx context.Context) (err error) {
			report.MatchesDownloaded, err = s.downloadMatches(ctx, me.ID)
			return err
		}},
	}
	for _, phase := range phases {
		if err := phase.run(ctx); err != nil {
			return s.stop(ctx, report, phase.name, err), nil
		}
	}

	s.logger.InfoContext(ctx, "sync completed",
		"account_id", accountID,
		"profile_id", me.ID,
		"profiles_uploaded", report.ProfilesUploaded,
		"matches_uploaded", report.MatchesUploaded,
		"matches_blocked", report.MatchesBlocked,
		"matches_pushed", report.MatchesPushed,
		"matches_rejected", report.MatchesRejected,
		"profiles_downloaded", report.ProfilesDownloaded,
		"known_users_uploaded", report.KnownUsersUploaded,
		"known_users_downloaded", report.KnownUsersDownloaded,
		"matches_downloaded", report.MatchesDownloaded,
		"duration", s.now().Sub(startedAt),
	)
	return report, nil
}

func (s *SyncService) stop(ctx context.Context, report SyncReport, phase string, err error) SyncReport {
	s.logger.WarnContext(ctx, "sync phase failed, skipping remaining phases",
		"account_id", report.AccountID,
		"phase", phase,
		"error", err,
	)
	report.FailedPhase = phase
	report.FailureReason = err.Error()
	return report
}

// linkDevice stamps the account onto the device's profile the first time the
// account signs in here, and pushes it right away so other devices can treat
// matches referencing it as uploadable.
func (s *SyncService) linkDevice(ctx context.Context, accountID string) (profile.Profile, error) {
	me, err := s.profileService.CurrentPlayer(ctx)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: current player: %w", errLocalStore, err)
	}
	if me.UserID != "" && me.UserID != accountID {
		return profile.Profile{}, fmt.Errorf("%w: device profile %s belongs to another account", ErrProfileConflict, me.ID)
	}

	owned, found, err := s.remote.FindProfileByUserID(ctx, accountID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("find remote profile by account: %w", err)
	}
	if found && owned.ID != me.ID {
		return profile.Profile{}, fmt.Errorf("%w: account %s already owns profile %s, device profile is %s",
			ErrProfileConflict, accountID, owned.ID, me.ID)
	}

	if me.UserID == "" {
		me.UserID = accountID
		me.IsPlaceholder = false
		me.UpdatedAt = s.now().UTC()
		if err := s.profiles.Upsert(ctx, me); err != nil {
			return profile.Profile{}, fmt.Errorf("%w: save linked profile: %w", errLocalStore, err)
		}
		s.logger.InfoContext(ctx, "linked device profile to account", "account_id", accountID, "profile_id", me.ID)
	} else if found && !reconcile.NeedsUpload(me.UpdatedAt, owned.UpdatedAt, true) {
		return me, nil
	}

	if err := s.remote.UpsertProfile(ctx, me); err != nil {
		return profile.Profile{}, fmt.Errorf("push linked profile: %w", err)
	}
	return me, nil
}

func (s *SyncService) uploadProfiles(ctx context.Context, accountID string) (int, error) {
	locals, err := s.profiles.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list local profiles: %w", err)
	}
	if len(locals) == 0 {
		return 0, nil
	}

	remotes, err := s.remote.ListProfilesByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list remote profiles: %w", err)
	}
	remoteByID := make(map[string]profile.Profile, len(remotes))
	for _, item := range remotes {
		remoteByID[item.ID] = item
	}

	uploaded := 0
	for _, item := range locals {
		if !item.Syncable() {
			continue
		}
		remoteCopy, exists := remoteByID[item.ID]
		if !reconcile.NeedsUpload(item.UpdatedAt, remoteCopy.UpdatedAt, exists) {
			continue
		}
		if err := s.remote.UpsertProfile(ctx, item); err != nil {
			return uploaded, fmt.Errorf("upload profile %s: %w", item.ID, err)
		}
		uploaded++
	}
	return uploaded, nil
}

type uploadOutcome int

const (
	uploadBlocked uploadOutcome = iota
	uploadSkipped
	uploadDone
	// uploadRejected means the remote kept its own row and the local copy
	// was replaced with it.
	uploadRejected
)

const maxUploadAttempts = 3

type uploadTally struct {
	uploaded, blocked, rejected int
}

func (s *SyncService) uploadMatches(ctx context.Context, creatorID string) (uploadTally, error) {
	var tally uploadTally
	candidates, err := s.matches.ListUnsyncedByCreator(ctx, creatorID)
	if err != nil {
		return tally, fmt.Errorf("list unsynced matches: %w", err)
	}

	for _, item := range candidates {
		outcome, err := s.uploadMatch(ctx, item.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return tally, err
		}
		switch outcome {
		case uploadDone:
			tally.uploaded++
		case uploadRejected:
			tally.rejected++
		case uploadBlocked:
			tally.blocked++
		}
	}
	return tally, nil
}

// UploadMatch pushes a local-only match when every occupied slot is backed by
// an account. It reports whether the match is synced afterwards; a blocked
// match is not an error and is retried on the next sync.
func (s *SyncService) UploadMatch(ctx context.Context, matchID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.UploadMatch", matchAttr(matchID))
	defer span.End()

	outcome, err := s.uploadMatch(ctx, matchID)
	return outcome == uploadDone || outcome == uploadRejected, err
}

// uploadMatch sends the full row and stamps it synced. When the row changed
// locally while it was in flight the newer row is sent again, up to
// maxUploadAttempts; after that it stays unsynced for the next pass.
func (s *SyncService) uploadMatch(ctx context.Context, matchID string) (uploadOutcome, error) {
	unlock := s.pushLanes.Lock(matchID)
	defer unlock()

	// Read under the lane so a queued upload never sends a row an earlier
	// one already replaced.
	item, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return uploadBlocked, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return uploadBlocked, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if item.IsSynced() {
		return uploadSkipped, nil
	}

	for attempt := 1; ; attempt++ {
		outcome, err := s.sendMatchRow(ctx, item)
		if err != nil || outcome != uploadDone {
			return outcome, err
		}

		current, settled, err := s.markUploaded(ctx, item)
		if err != nil || settled {
			return uploadDone, err
		}
		if attempt == maxUploadAttempts {
			s.logger.WarnContext(ctx, "match kept changing during upload, leaving it for the next sync",
				"match_id", item.ID,
				"attempts", attempt,
			)
			return uploadSkipped, nil
		}
		s.logger.DebugContext(ctx, "match changed during upload, sending it again", "match_id", item.ID, "version", current.Version)
		item = current
	}
}

func (s *SyncService) sendMatchRow(ctx context.Context, item match.Match) (uploadOutcome, error) {
	players, err := s.resolvePlayers(ctx, item.PlayerIDs())
	if err != nil {
		return uploadBlocked, err
	}
	for _, playerID := range item.PlayerIDs() {
		if p, ok := players[playerID]; !ok || !p.Syncable() {
			s.logger.DebugContext(ctx, "match not uploadable yet", "match_id", item.ID, "blocked_by", playerID)
			return uploadBlocked, nil
		}
	}

	if err := s.ensureRemoteProfiles(ctx, players); err != nil {
		return uploadBlocked, err
	}
	if err := s.uploadVenue(ctx, item.VenueID); err != nil {
		return uploadBlocked, err
	}
	if err := s.remote.UpsertMatch(ctx, item); err != nil {
		if !isRemoteRejection(err) {
			return uploadBlocked, fmt.Errorf("upload match %s: %w", item.ID, err)
		}
		s.logger.WarnContext(ctx, "remote kept its own copy of the match, adopting it", "match_id", item.ID, "error", err)
		if err := s.refreshFromRemote(ctx, item.ID); err != nil {
			return uploadBlocked, err
		}
		return uploadRejected, nil
	}
	return uploadDone, nil
}

// markUploaded stamps the row synced when it still matches what was sent.
// Otherwise it returns the newer local row.
func (s *SyncService) markUploaded(ctx context.Context, sent match.Match) (match.Match, bool, error) {
	unlock := s.matchLocks.Lock(sent.ID)
	defer unlock()

	current, exists, err := s.matches.GetByID(ctx, sent.ID)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("%w: reload match: %w", errLocalStore, err)
	}
	if !exists {
		return match.Match{}, true, nil
	}
	if !sameRevision(current, sent) {
		return current, false, nil
	}

	syncedAt := s.now().UTC()
	current.SyncedAt = &syncedAt
	// The full row carried every queued edit.
	current.Pending = nil
	if err := s.matches.Upsert(ctx, current); err != nil {
		return match.Match{}, false, fmt.Errorf("%w: mark match synced: %w", errLocalStore, err)
	}
	return current, true, nil
}

// sameRevision reports whether no local edit landed between two reads.
func sameRevision(a, b match.Match) bool {
	return a.Version == b.Version && a.UpdatedAt.Equal(b.UpdatedAt)
}

// resolvePlayers returns the local profiles for ids, refreshing the ones that
// are missing or not yet backed by an account from the remote in parallel.
func (s *SyncService) resolvePlayers(ctx context.Context, ids []string) (map[string]profile.Profile, error) {
	locals, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get slot profiles: %w", err)
	}
	out := make(map[string]profile.Profile, len(ids))
	for _, item := range locals {
		out[item.ID] = item
	}

	unresolved := make([]string, 0, len(ids))
	for _, playerID := range ids {
		if p, ok := out[playerID]; !ok || !p.Syncable() {
			unresolved = append(unresolved, playerID)
		}
	}
	if len(unresolved) == 0 {
		return out, nil
	}

	refreshed, err := s.fetchProfiles(ctx, unresolved)
	if err != nil {
		return nil, err
	}
	for _, item := range refreshed {
		if _, err := s.profileService.adoptRemote(ctx, item); err != nil {
			return nil, err
		}
		out[item.ID] = item
	}
	return out, nil
}

// ensureRemoteProfiles uploads slot profiles the remote has not seen yet so
// the match row never references a missing profile.
func (s *SyncService) ensureRemoteProfiles(ctx context.Context, players map[string]profile.Profile) error {
	ids := make([]string, 0, len(players))
	for playerID := range players {
		ids = append(ids, playerID)
	}
	present, err := s.remote.ListProfilesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("check remote profiles: %w", err)
	}
	seen := make(map[string]struct{}, len(present))
	for _, item := range present {
		seen[item.ID] = struct{}{}
	}

	for playerID, item := range players {
		if _, ok := seen[playerID]; ok {
			continue
		}
		if err := s.remote.UpsertProfile(ctx, item); err != nil {
			return fmt.Errorf("upload slot profile %s: %w", playerID, err)
		}
	}
	return nil
}

func (s *SyncService) uploadVenue(ctx context.Context, venueID string) error {
	if venueID == "" {
		return nil
	}
	item, exists, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		return fmt.Errorf("get venue: %w", err)
	}
	if !exists {
		// Venue picked from remote search, already there.
		return nil
	}
	if err := s.remote.UpsertVenue(ctx, item); err != nil {
		return fmt.Errorf("upload venue %s: %w", venueID, err)
	}
	return nil
}

func (s *SyncService) downloadProfiles(ctx context.Context, accountID string) (int, error) {
	remotes, err := s.remote.ListProfilesByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list remote profiles: %w", err)
	}

	merged := 0
	for _, item := range remotes {
		changed, err := s.profileService.adoptRemote(ctx, item)
		if err != nil {
			return merged, err
		}
		if changed {
			merged++
		}
	}
	return merged, nil
}

func (s *SyncService) downloadMatches(ctx context.Context, profileID string) (int, error) {
	remotes, err := s.remote.ListMatchesByProfile(ctx, profileID)
	if err != nil {
		return 0, fmt.Errorf("list remote matches: %w", err)
	}

	merged := 0
	playerIDs := make(map[string]struct{})
	for _, item := range remotes {
		changed, err := s.adoptRemoteMatch(ctx, item)
		if err != nil {
			return merged, err
		}
		if !changed {
			continue
		}
		merged++
		for _, playerID := range item.PlayerIDs() {
			playerIDs[playerID] = struct{}{}
		}
	}

	if err := s.fetchMissingProfiles(ctx, playerIDs); err != nil {
		return merged, err
	}
	return merged, nil
}

// adoptRemoteMatch merges a remote match row into the local store. Downloaded
// rows are marked synced with the prior local stamp, or the remote creation
// time when the match is new here. A local row with edits still waiting to be
// pushed is left alone until the push resolves.
func (s *SyncService) adoptRemoteMatch(ctx context.Context, remoteCopy match.Match) (bool, error) {
	unlock := s.matchLocks.Lock(remoteCopy.ID)
	defer unlock()

	local, exists, err := s.matches.GetByID(ctx, remoteCopy.ID)
	if err != nil {
		return false, fmt.Errorf("get local match: %w", err)
	}
	if exists && local.HasPendingPush() {
		s.logger.DebugContext(ctx, "local match has unpushed edits, keeping it", "match_id", local.ID)
		return false, nil
	}
	if reconcile.ResolveByUpdatedAt(remoteCopy.UpdatedAt, local.UpdatedAt, exists) == reconcile.DecisionIgnore {
		return false, nil
	}

	item := match.Clone(remoteCopy)
	if exists && local.SyncedAt != nil {
		item.SyncedAt = local.SyncedAt
	} else {
		createdAt := remoteCopy.CreatedAt
		item.SyncedAt = &createdAt
	}
	if err := s.matches.Upsert(ctx, item); err != nil {
		return false, fmt.Errorf("save remote match: %w", err)
	}
	return true, nil
}

func (s *SyncService) fetchMissingProfiles(ctx context.Context, ids map[string]struct{}) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := make([]string, 0, len(ids))
	for playerID := range ids {
		wanted = append(wanted, playerID)
	}
	locals, err := s.profiles.GetByIDs(ctx, wanted)
	if err != nil {
		return fmt.Errorf("get local profiles: %w", err)
	}
	for _, item := range locals {
		delete(ids, item.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	missing := make([]string, 0, len(ids))
	for playerID := range ids {
		missing = append(missing, playerID)
	}
	fetched, err := s.fetchProfiles(ctx, missing)
	if err != nil {
		return err
	}
	for _, item := range fetched {
		if _, err := s.profileService.adoptRemote(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// fetchProfiles looks up ids on the remote concurrently. Unknown ids are
// dropped from the result.
func (s *SyncService) fetchProfiles(ctx context.Context, ids []string) ([]profile.Profile, error) {
	type fetched struct {
		item  profile.Profile
		found bool
	}

	p := pool.NewWithResults[fetched]().
		WithContext(ctx).
		WithMaxGoroutines(s.fanout)
	for _, profileID := range ids {
		p.Go(func(ctx context.Context) (fetched, error) {
			item, found, err := s.profileService.fetchRemote(ctx, profileID)
			if err != nil {
				return fetched{}, err
			}
			return fetched{item: item, found: found}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	out := make([]profile.Profile, 0, len(results))
	for _, r := range results {
		if r.found {
			out = append(out, r.item)
		}
	}
	return out, nil
}
