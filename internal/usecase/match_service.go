package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
	"github.com/riskibarqy/match-ledger/internal/platform/id"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

// BackgroundExecutor runs fire-and-forget work. Submit must not block.
type BackgroundExecutor interface {
	Submit(ctx context.Context, name string, fn func(context.Context) error) error
}

type CreateMatchInput struct {
	CreatedBy  string
	Team1      []string
	Team2      []string
	ScoreTeam1 int
	ScoreTeam2 int
	VenueID    string
	PlayedAt   time.Time
}

type UpdateScoreInput struct {
	MatchID    string
	ScoreTeam1 int
	ScoreTeam2 int
	UpdatedBy  string
	// ExpectedVersion is the version the caller read; zero skips the check.
	ExpectedVersion int64
}

type CreateVenueInput struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
	CreatedBy string
}

type MatchService struct {
	matches  match.Repository
	venues   venue.Repository
	sync     *SyncService
	remote   backend.Backend
	session  SessionState
	executor BackgroundExecutor
	ids      id.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewMatchService(
	matches match.Repository,
	venues venue.Repository,
	syncService *SyncService,
	remote backend.Backend,
	session SessionState,
	executor BackgroundExecutor,
	ids id.Generator,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		matches:  matches,
		venues:   venues,
		sync:     syncService,
		remote:   remote,
		session:  session,
		executor: executor,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateMatch records a match locally. The creator's own team starts verified.
func (s *MatchService) CreateMatch(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CreateMatch")
	defer span.End()

	matchID, err := s.ids.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate match id: %w", err)
	}

	item, err := match.New(match.NewMatchParams{
		ID:         matchID,
		CreatedBy:  strings.TrimSpace(input.CreatedBy),
		Team1:      input.Team1,
		Team2:      input.Team2,
		ScoreTeam1: input.ScoreTeam1,
		ScoreTeam2: input.ScoreTeam2,
		VenueID:    strings.TrimSpace(input.VenueID),
		PlayedAt:   input.PlayedAt,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return match.Match{}, err
	}

	if err := s.matches.Upsert(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("save match: %w", err)
	}

	s.scheduleUpload(ctx, item.ID)
	return item, nil
}

// UpdateScore edits the score of an unverified match. Only the updater's team
// stays verified afterwards.
func (s *MatchService) UpdateScore(ctx context.Context, input UpdateScoreInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpdateScore", matchAttr(input.MatchID))
	defer span.End()

	updatedBy := strings.TrimSpace(input.UpdatedBy)
	item, _, err := s.editMatch(ctx, input.MatchID, func(item *match.Match) (bool, error) {
		if item.IsVerified {
			return false, fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, item.ID)
		}
		if input.ExpectedVersion > 0 && input.ExpectedVersion != item.Version {
			return false, fmt.Errorf("%w: match=%s expected=%d current=%d",
				ErrMatchVersionConflict, item.ID, input.ExpectedVersion, item.Version)
		}

		readVersion := item.Version
		if err := item.ApplyScoreUpdate(input.ScoreTeam1, input.ScoreTeam2, updatedBy, s.now().UTC()); err != nil {
			return false, err
		}
		if item.IsSynced() {
			item.QueueScorePush(readVersion, updatedBy)
		}
		return true, nil
	})
	if err != nil {
		return match.Match{}, err
	}

	s.schedulePush(ctx, item)
	return item, nil
}

// VerifyForTeam confirms the result on behalf of the profile's team.
func (s *MatchService) VerifyForTeam(ctx context.Context, matchID, profileID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.VerifyForTeam", matchAttr(matchID), profileAttr(profileID))
	defer span.End()

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return match.Match{}, fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}

	item, changed, err := s.editMatch(ctx, matchID, func(item *match.Match) (bool, error) {
		changed, err := item.ApplyVerification(profileID, s.now().UTC())
		if err != nil || !changed {
			return false, err
		}
		if item.IsSynced() {
			item.QueueVerifyPush(profileID)
		}
		return true, nil
	})
	if err != nil {
		return match.Match{}, err
	}

	if changed {
		s.schedulePush(ctx, item)
	}
	return item, nil
}

// DeleteMatch removes an unverified match. Only its creator may do so.
func (s *MatchService) DeleteMatch(ctx context.Context, matchID, requestedBy string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.DeleteMatch", matchAttr(matchID))
	defer span.End()

	item, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if item.IsVerified {
		return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, item.ID)
	}
	requestedBy = strings.TrimSpace(requestedBy)
	if requestedBy == "" || requestedBy != item.CreatedBy {
		return fmt.Errorf("%w: match=%s", ErrNotMatchCreator, item.ID)
	}

	if err := s.matches.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}

	if item.IsSynced() {
		s.schedule(ctx, "match.delete", func(ctx context.Context) error {
			return s.remote.DeleteMatch(ctx, item.ID)
		})
	}
	return nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}

	item, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

// ListMatches returns the profile's matches newest first, or every local
// match when profileID is empty.
func (s *MatchService) ListMatches(ctx context.Context, profileID string) ([]match.Match, error) {
	profileID = strings.TrimSpace(profileID)

	var (
		items []match.Match
		err   error
	)
	if profileID == "" {
		items, err = s.matches.List(ctx)
	} else {
		items, err = s.matches.ListByProfile(ctx, profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

func (s *MatchService) CreateVenue(ctx context.Context, input CreateVenueInput) (venue.Venue, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return venue.Venue{}, fmt.Errorf("%w: venue name is required", ErrInvalidInput)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return venue.Venue{}, fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidInput)
	}

	venueID, err := s.ids.NewID()
	if err != nil {
		return venue.Venue{}, fmt.Errorf("generate venue id: %w", err)
	}
	now := s.now().UTC()
	item := venue.Venue{
		ID:        venueID,
		Name:      name,
		Address:   strings.TrimSpace(input.Address),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		CreatedBy: strings.TrimSpace(input.CreatedBy),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.venues.Upsert(ctx, item); err != nil {
		return venue.Venue{}, fmt.Errorf("save venue: %w", err)
	}
	return item, nil
}

// editMatch applies edit to the stored match while holding its row lock and
// saves it when edit reports a change.
func (s *MatchService) editMatch(ctx context.Context, matchID string, edit func(*match.Match) (bool, error)) (match.Match, bool, error) {
	matchID = strings.TrimSpace(matchID)
	unlock := s.sync.lockMatch(matchID)
	defer unlock()

	item, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, false, err
	}
	changed, err := edit(&item)
	if err != nil {
		return match.Match{}, false, err
	}
	if !changed {
		return item, false, nil
	}
	if err := s.matches.Upsert(ctx, item); err != nil {
		return match.Match{}, false, fmt.Errorf("save match: %w", err)
	}
	return item, true, nil
}

// schedulePush sends an edited match: whole when it was never uploaded,
// otherwise by replaying its queued edits.
func (s *MatchService) schedulePush(ctx context.Context, item match.Match) {
	if !item.IsSynced() {
		s.scheduleUpload(ctx, item.ID)
		return
	}
	matchID := item.ID
	s.schedule(ctx, "match.push", func(ctx context.Context) error {
		return s.sync.PushPending(ctx, matchID)
	})
}

func (s *MatchService) scheduleUpload(ctx context.Context, matchID string) {
	s.schedule(ctx, "match.upload", func(ctx context.Context) error {
		_, err := s.sync.UploadMatch(ctx, matchID)
		return err
	})
}

// schedule queues a best-effort push. Nothing is pushed while signed out; the
// next sync picks the change up from the unsynced row or its queued edits.
func (s *MatchService) schedule(ctx context.Context, name string, fn func(context.Context) error) {
	if s.executor == nil {
		return
	}
	if s.session != nil && s.session.AccountID() == "" {
		s.logger.DebugContext(ctx, "signed out, deferring push to next sync", "task", name)
		return
	}
	if err := s.executor.Submit(ctx, name, fn); err != nil {
		s.logger.WarnContext(ctx, "schedule background push failed", "task", name, "error", err)
	}
}
