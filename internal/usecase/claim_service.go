package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/devicelink"
	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

type ClaimResult struct {
	Profile       profile.Profile `json:"profile"`
	MatchesSynced int             `json:"matches_synced"`
}

type ReferenceUpdateResult struct {
	Matches        int `json:"matches"`
	MatchesSkipped int `json:"matches_skipped"`
	DeviceLinks    int `json:"device_links"`
	KnownUsers     int `json:"known_users"`
}

type ClaimService struct {
	profileService *ProfileService
	syncService    *SyncService
	profiles       profile.Repository
	matches        match.Repository
	links          devicelink.Repository
	knownUsers     knownuser.Repository
	remote         backend.Backend
	session        SessionState
	logger         *logging.Logger
	now            func() time.Time
}

func NewClaimService(
	profileService *ProfileService,
	syncService *SyncService,
	profiles profile.Repository,
	matches match.Repository,
	links devicelink.Repository,
	knownUsers knownuser.Repository,
	remote backend.Backend,
	session SessionState,
	logger *logging.Logger,
) *ClaimService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ClaimService{
		profileService: profileService,
		syncService:    syncService,
		profiles:       profiles,
		matches:        matches,
		links:          links,
		knownUsers:     knownUsers,
		remote:         remote,
		session:        session,
		logger:         logger,
		now:            time.Now,
	}
}

// ClaimPlaceholder binds a guest placeholder to the scanned player's account.
// The placeholder keeps its id, so matches that reference it become
// uploadable without being rewritten.
func (s *ClaimService) ClaimPlaceholder(ctx context.Context, placeholderID string, scanned identity.Payload) (ClaimResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.ClaimPlaceholder", profileAttr(placeholderID))
	defer span.End()

	if err := scanned.Validate(); err != nil {
		return ClaimResult{}, err
	}
	if scanned.IsPlaceholder {
		return ClaimResult{}, fmt.Errorf("%w: profile=%s", ErrScannedIdentityIsPlaceholder, scanned.ProfileID)
	}

	placeholderID = strings.TrimSpace(placeholderID)
	if placeholderID == "" {
		return ClaimResult{}, fmt.Errorf("%w: placeholder_id is required", ErrInvalidInput)
	}
	if placeholderID == scanned.ProfileID {
		return ClaimResult{}, fmt.Errorf("%w: a profile cannot claim itself", ErrInvalidInput)
	}

	target, err := s.profileService.GetProfile(ctx, placeholderID)
	if err != nil {
		return ClaimResult{}, err
	}
	if !target.IsPlaceholder {
		return ClaimResult{}, fmt.Errorf("%w: profile=%s", ErrNotAPlaceholder, target.ID)
	}
	if target.ClaimedBy != "" {
		return ClaimResult{}, fmt.Errorf("%w: profile=%s claimed_by=%s", ErrAlreadyClaimed, target.ID, target.ClaimedBy)
	}

	userID, err := s.resolveUserID(ctx, scanned.ProfileID)
	if err != nil {
		return ClaimResult{}, err
	}

	target.UserID = userID
	target.ClaimedBy = userID
	target.IsPlaceholder = false
	if scanned.DisplayName != "" {
		target.DisplayName = scanned.DisplayName
	}
	target.UpdatedAt = s.now().UTC()
	if err := s.profiles.Upsert(ctx, target); err != nil {
		return ClaimResult{}, fmt.Errorf("save claimed profile: %w", err)
	}
	s.logger.InfoContext(ctx, "placeholder claimed",
		"profile_id", target.ID,
		"claimed_by", userID,
	)

	result := ClaimResult{Profile: target}
	if s.session == nil || s.session.AccountID() == "" {
		return result, nil
	}

	if err := s.remote.UpsertProfile(ctx, target); err != nil {
		s.logger.WarnContext(ctx, "push claimed profile failed, matches stay local until next sync",
			"profile_id", target.ID,
			"error", err,
		)
		return result, nil
	}

	result.MatchesSynced = s.uploadReferencingMatches(ctx, target.ID)
	return result, nil
}

// resolveUserID prefers the remote copy of the scanned profile and falls back
// to the local cache.
func (s *ClaimService) resolveUserID(ctx context.Context, profileID string) (string, error) {
	remoteCopy, found, err := s.profileService.fetchRemote(ctx, profileID)
	if err != nil {
		s.logger.WarnContext(ctx, "remote lookup of scanned identity failed, using local cache",
			"profile_id", profileID,
			"error", err,
		)
	}
	if err == nil && found && remoteCopy.Syncable() {
		if _, err := s.profileService.adoptRemote(ctx, remoteCopy); err != nil {
			return "", err
		}
		return remoteCopy.UserID, nil
	}

	local, exists, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return "", fmt.Errorf("get scanned profile: %w", err)
	}
	if exists && local.Syncable() {
		return local.UserID, nil
	}
	return "", fmt.Errorf("%w: profile=%s", ErrUnlinkedIdentity, profileID)
}

func (s *ClaimService) uploadReferencingMatches(ctx context.Context, profileID string) int {
	items, err := s.matches.ListReferencing(ctx, profileID)
	if err != nil {
		s.logger.WarnContext(ctx, "list matches referencing claimed profile failed", "profile_id", profileID, "error", err)
		return 0
	}

	synced := 0
	for _, item := range items {
		if item.IsSynced() {
			continue
		}
		ok, err := s.syncService.UploadMatch(ctx, item.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "upload claimed match failed", "match_id", item.ID, "error", err)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced
}

// rewriteMatchReferences re-reads the match under its row lock so an edit made
// since the listing is kept, then queues the whole row for upload.
func (s *ClaimService) rewriteMatchReferences(ctx context.Context, matchID, oldID, newID string, now time.Time) (bool, error) {
	unlock := s.syncService.lockMatch(matchID)
	defer unlock()

	item, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("get match %s: %w", matchID, err)
	}
	if !exists || item.IsVerified {
		return false, nil
	}
	if _, err := item.ReplaceProfile(oldID, newID, now); err != nil {
		return false, err
	}
	// The remote copy still carries the old id.
	item.SyncedAt = nil
	if err := s.matches.Upsert(ctx, item); err != nil {
		return false, fmt.Errorf("save match %s: %w", matchID, err)
	}
	return true, nil
}

// UpdateMatchReferences moves every local reference from oldID to newID. It is
// a repair tool; claiming never needs it. Verified matches are left alone.
func (s *ClaimService) UpdateMatchReferences(ctx context.Context, oldID, newID string) (ReferenceUpdateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.UpdateMatchReferences", profileAttr(oldID))
	defer span.End()

	oldID = strings.TrimSpace(oldID)
	newID = strings.TrimSpace(newID)
	if oldID == "" || newID == "" {
		return ReferenceUpdateResult{}, fmt.Errorf("%w: old and new profile ids are required", ErrInvalidInput)
	}
	if oldID == newID {
		return ReferenceUpdateResult{}, fmt.Errorf("%w: old and new profile ids are equal", ErrInvalidInput)
	}

	items, err := s.matches.ListReferencing(ctx, oldID)
	if err != nil {
		return ReferenceUpdateResult{}, fmt.Errorf("list referencing matches: %w", err)
	}

	now := s.now().UTC()
	result := ReferenceUpdateResult{}
	rewritten := make([]match.Match, 0, len(items))
	for _, item := range items {
		if item.IsVerified {
			result.MatchesSkipped++
			continue
		}
		if _, err := item.ReplaceProfile(oldID, newID, now); err != nil {
			return ReferenceUpdateResult{}, err
		}
		rewritten = append(rewritten, item)
	}

	for _, item := range rewritten {
		saved, err := s.rewriteMatchReferences(ctx, item.ID, oldID, newID, now)
		if err != nil {
			return result, err
		}
		if saved {
			result.Matches++
		} else {
			result.MatchesSkipped++
		}
	}

	result.DeviceLinks, err = s.links.RepointProfile(ctx, oldID, newID, now)
	if err != nil {
		return result, fmt.Errorf("repoint device links: %w", err)
	}

	edges, err := s.knownUsers.ListByKnownProfile(ctx, oldID)
	if err != nil {
		return result, fmt.Errorf("list known users: %w", err)
	}
	for _, edge := range edges {
		moved := knownuser.NewEdge(edge.OwnerAccountID, newID, edge.CreatedAt)
		if err := s.knownUsers.Upsert(ctx, moved); err != nil {
			return result, fmt.Errorf("save known user: %w", err)
		}
		if err := s.knownUsers.Delete(ctx, edge.ID); err != nil {
			return result, fmt.Errorf("delete known user: %w", err)
		}
		result.KnownUsers++
	}

	s.logger.InfoContext(ctx, "match references updated",
		"old_profile_id", oldID,
		"new_profile_id", newID,
		"matches", result.Matches,
		"matches_skipped", result.MatchesSkipped,
		"device_links", result.DeviceLinks,
		"known_users", result.KnownUsers,
	)
	return result, nil
}
