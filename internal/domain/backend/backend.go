package backend

import (
	"context"
	"errors"

	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

var (
	// ErrVersionConflict means the stored version moved on since the caller read it.
	ErrVersionConflict = errors.New("remote version conflict")
	ErrNotFound        = errors.New("remote record not found")
	ErrUnavailable     = errors.New("remote backend unavailable")
)

// UpdateScoreParams mirrors the arguments of update_match_score.
type UpdateScoreParams struct {
	MatchID         string
	ScoreTeam1      int
	ScoreTeam2      int
	ExpectedVersion int64
	UpdatedBy       string
}

// Backend is the authoritative shared store. Implementations must apply
// UpdateMatchScore and VerifyMatchForTeam atomically on the server side.
type Backend interface {
	GetProfile(ctx context.Context, id string) (profile.Profile, bool, error)
	// FindProfileByUserID returns the profile registered to the account,
	// preferring one the account signed up with over one it claimed.
	FindProfileByUserID(ctx context.Context, userID string) (profile.Profile, bool, error)
	ListProfilesByAccount(ctx context.Context, accountID string) ([]profile.Profile, error)
	ListProfilesByIDs(ctx context.Context, ids []string) ([]profile.Profile, error)
	UpsertProfile(ctx context.Context, item profile.Profile) error

	UpsertVenue(ctx context.Context, item venue.Venue) error

	GetMatch(ctx context.Context, id string) (match.Match, bool, error)
	ListMatchesByProfile(ctx context.Context, profileID string) ([]match.Match, error)
	UpsertMatch(ctx context.Context, item match.Match) error
	DeleteMatch(ctx context.Context, id string) error
	UpdateMatchScore(ctx context.Context, params UpdateScoreParams) (match.Match, error)
	VerifyMatchForTeam(ctx context.Context, matchID, profileID string) (match.Match, error)

	ListKnownUsers(ctx context.Context, ownerAccountID string) ([]knownuser.Edge, error)
	UpsertKnownUsers(ctx context.Context, items []knownuser.Edge) error
}
