package postgrest

import (
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

// Wire rows send explicit nulls so merge-duplicates upserts clear columns too.

type profileRow struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id"`
	IsPlaceholder   bool      `json:"is_placeholder"`
	PlaceholderCode *string   `json:"placeholder_code"`
	ClaimedBy       *string   `json:"claimed_by"`
	DefaultVenueID  *string   `json:"default_venue_id"`
	DisplayName     string    `json:"display_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toProfileRow(p profile.Profile) profileRow {
	return profileRow{
		ID:              p.ID,
		UserID:          nullable(p.UserID),
		IsPlaceholder:   p.IsPlaceholder,
		PlaceholderCode: nullable(p.PlaceholderCode),
		ClaimedBy:       nullable(p.ClaimedBy),
		DefaultVenueID:  nullable(p.DefaultVenueID),
		DisplayName:     p.DisplayName,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{
		ID:              r.ID,
		UserID:          deref(r.UserID),
		IsPlaceholder:   r.IsPlaceholder,
		PlaceholderCode: deref(r.PlaceholderCode),
		ClaimedBy:       deref(r.ClaimedBy),
		DefaultVenueID:  deref(r.DefaultVenueID),
		DisplayName:     r.DisplayName,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

// matchRow leaves synced_at out; it is device state.
type matchRow struct {
	ID              string     `json:"id"`
	CreatedBy       *string    `json:"created_by"`
	Team1Player1    *string    `json:"team1_player1"`
	Team1Player2    *string    `json:"team1_player2"`
	Team2Player1    *string    `json:"team2_player1"`
	Team2Player2    *string    `json:"team2_player2"`
	ScoreTeam1      int        `json:"score_team1"`
	ScoreTeam2      int        `json:"score_team2"`
	Version         int64      `json:"version"`
	Team1VerifiedBy *string    `json:"team1_verified_by"`
	Team1VerifiedAt *time.Time `json:"team1_verified_at"`
	Team2VerifiedBy *string    `json:"team2_verified_by"`
	Team2VerifiedAt *time.Time `json:"team2_verified_at"`
	IsVerified      bool       `json:"is_verified"`
	VerifiedBy      *string    `json:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	Fingerprint     string     `json:"fingerprint"`
	VenueID         *string    `json:"venue_id"`
	PlayedAt        time.Time  `json:"played_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toMatchRow(m match.Match) matchRow {
	return matchRow{
		ID:              m.ID,
		CreatedBy:       nullable(m.CreatedBy),
		Team1Player1:    nullable(m.Team1Player1),
		Team1Player2:    nullable(m.Team1Player2),
		Team2Player1:    nullable(m.Team2Player1),
		Team2Player2:    nullable(m.Team2Player2),
		ScoreTeam1:      m.ScoreTeam1,
		ScoreTeam2:      m.ScoreTeam2,
		Version:         m.Version,
		Team1VerifiedBy: nullable(m.Team1VerifiedBy),
		Team1VerifiedAt: utcPtr(m.Team1VerifiedAt),
		Team2VerifiedBy: nullable(m.Team2VerifiedBy),
		Team2VerifiedAt: utcPtr(m.Team2VerifiedAt),
		IsVerified:      m.IsVerified,
		VerifiedBy:      nullable(m.VerifiedBy),
		VerifiedAt:      utcPtr(m.VerifiedAt),
		Fingerprint:     m.Fingerprint,
		VenueID:         nullable(m.VenueID),
		PlayedAt:        m.PlayedAt.UTC(),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func (r matchRow) toDomain() match.Match {
	return match.Match{
		ID:              r.ID,
		CreatedBy:       deref(r.CreatedBy),
		Team1Player1:    deref(r.Team1Player1),
		Team1Player2:    deref(r.Team1Player2),
		Team2Player1:    deref(r.Team2Player1),
		Team2Player2:    deref(r.Team2Player2),
		ScoreTeam1:      r.ScoreTeam1,
		ScoreTeam2:      r.ScoreTeam2,
		Version:         r.Version,
		Team1VerifiedBy: deref(r.Team1VerifiedBy),
		Team1VerifiedAt: utcPtr(r.Team1VerifiedAt),
		Team2VerifiedBy: deref(r.Team2VerifiedBy),
		Team2VerifiedAt: utcPtr(r.Team2VerifiedAt),
		IsVerified:      r.IsVerified,
		VerifiedBy:      deref(r.VerifiedBy),
		VerifiedAt:      utcPtr(r.VerifiedAt),
		Fingerprint:     r.Fingerprint,
		VenueID:         deref(r.VenueID),
		PlayedAt:        r.PlayedAt.UTC(),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type venueRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toVenueRow(v venue.Venue) venueRow {
	return venueRow{
		ID:        v.ID,
		Name:      v.Name,
		Address:   nullable(v.Address),
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		CreatedBy: nullable(v.CreatedBy),
		CreatedAt: v.CreatedAt.UTC(),
		UpdatedAt: v.UpdatedAt.UTC(),
	}
}

type knownUserRow struct {
	ID             string    `json:"id"`
	OwnerAccountID string    `json:"owner_account_id"`
	KnownProfileID string    `json:"known_profile_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toKnownUserRow(e knownuser.Edge) knownUserRow {
	return knownUserRow{
		ID:             knownuser.EdgeID(e.OwnerAccountID, e.KnownProfileID),
		OwnerAccountID: e.OwnerAccountID,
		KnownProfileID: e.KnownProfileID,
		CreatedAt:      e.CreatedAt.UTC(),
	}
}

func (r knownUserRow) toDomain() knownuser.Edge {
	return knownuser.Edge{
		ID:             r.ID,
		OwnerAccountID: r.OwnerAccountID,
		KnownProfileID: r.KnownProfileID,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type updateScoreArgs struct {
	MatchID         string  `json:"p_match_id"`
	ScoreTeam1      int     `json:"p_score_team1"`
	ScoreTeam2      int     `json:"p_score_team2"`
	ExpectedVersion int64   `json:"p_expected_version"`
	UpdatedBy       *string `json:"p_updated_by"`
}

type upsertMatchArgs struct {
	Row matchRow `json:"p_row"`
}

type verifyArgs struct {
	MatchID   string `json:"p_match_id"`
	ProfileID string `json:"p_profile_id"`
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func utcPtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := v.UTC()
	return &t
}
