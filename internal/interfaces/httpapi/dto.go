package httpapi

import (
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
	"github.com/riskibarqy/match-ledger/internal/usecase"
)

type profileDTO struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId,omitempty"`
	DisplayName     string    `json:"displayName"`
	IsPlaceholder   bool      `json:"isPlaceholder"`
	PlaceholderCode string    `json:"placeholderCode,omitempty"`
	ClaimedBy       string    `json:"claimedBy,omitempty"`
	DefaultVenueID  string    `json:"defaultVenueId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type teamDTO struct {
	Players    []string   `json:"players"`
	Score      int        `json:"score"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

type matchDTO struct {
	ID           string     `json:"id"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	Team1        teamDTO    `json:"team1"`
	Team2        teamDTO    `json:"team2"`
	Status       string     `json:"status"`
	AwaitingTeam int        `json:"awaitingTeam,omitempty"`
	IsVerified   bool       `json:"isVerified"`
	VerifiedBy   string     `json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time `json:"verifiedAt,omitempty"`
	Version      int64      `json:"version"`
	Fingerprint  string     `json:"fingerprint"`
	VenueID      string     `json:"venueId,omitempty"`
	PlayedAt     time.Time  `json:"playedAt"`
	Synced       bool       `json:"synced"`
	SyncedAt     *time.Time `json:"syncedAt,omitempty"`
	PendingPush  bool       `json:"pendingPush"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type venueDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type claimResultDTO struct {
	Profile       profileDTO `json:"profile"`
	MatchesSynced int        `json:"matchesSynced"`
}

type referenceUpdateDTO struct {
	Matches        int `json:"matches"`
	MatchesSkipped int `json:"matchesSkipped"`
	DeviceLinks    int `json:"deviceLinks"`
	KnownUsers     int `json:"knownUsers"`
}

type sessionDTO struct {
	SignedIn  bool                `json:"signedIn"`
	AccountID string              `json:"accountId,omitempty"`
	Sync      *usecase.SyncReport `json:"sync,omitempty"`
}

func profileToDTO(p profile.Profile) profileDTO {
	return profileDTO{
		ID:              p.ID,
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		IsPlaceholder:   p.IsPlaceholder,
		PlaceholderCode: p.PlaceholderCode,
		ClaimedBy:       p.ClaimedBy,
		DefaultVenueID:  p.DefaultVenueID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func profilesToDTO(items []profile.Profile) []profileDTO {
	out := make([]profileDTO, 0, len(items))
	for _, item := range items {
		out = append(out, profileToDTO(item))
	}
	return out
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ID:        m.ID,
		CreatedBy: m.CreatedBy,
		Team1: teamDTO{
			Players:    nonEmpty(m.Team1Player1, m.Team1Player2),
			Score:      m.ScoreTeam1,
			VerifiedBy: m.Team1VerifiedBy,
			VerifiedAt: m.Team1VerifiedAt,
		},
		Team2: teamDTO{
			Players:    nonEmpty(m.Team2Player1, m.Team2Player2),
			Score:      m.ScoreTeam2,
			VerifiedBy: m.Team2VerifiedBy,
			VerifiedAt: m.Team2VerifiedAt,
		},
		Status:       string(m.Status()),
		AwaitingTeam: int(m.AwaitingTeam()),
		IsVerified:   m.IsVerified,
		VerifiedBy:   m.VerifiedBy,
		VerifiedAt:   m.VerifiedAt,
		Version:      m.Version,
		Fingerprint:  m.Fingerprint,
		VenueID:      m.VenueID,
		PlayedAt:     m.PlayedAt,
		Synced:       m.IsSynced(),
		SyncedAt:     m.SyncedAt,
		PendingPush:  m.HasPendingPush(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func venueToDTO(v venue.Venue) venueDTO {
	return venueDTO{
		ID:        v.ID,
		Name:      v.Name,
		Address:   v.Address,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		CreatedBy: v.CreatedBy,
		CreatedAt: v.CreatedAt,
	}
}

func nonEmpty(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
