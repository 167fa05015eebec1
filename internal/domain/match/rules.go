package match

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxPlayersPerTeam = 2

var (
	ErrInvalidRoster         = errors.New("invalid roster")
	ErrInvalidScore          = errors.New("invalid score")
	ErrMatchAlreadyVerified  = errors.New("match already verified")
	ErrNotAParticipant       = errors.New("profile is not a participant of the match")
	ErrProfileAlreadyInMatch = errors.New("profile already occupies another slot")
)

// NewMatchParams carries the caller's intent for a freshly recorded game.
type NewMatchParams struct {
	ID         string
	CreatedBy  string
	Team1      []string
	Team2      []string
	ScoreTeam1 int
	ScoreTeam2 int
	VenueID    string
	PlayedAt   time.Time
	Now        time.Time
}

// New builds a validated match and auto-verifies the creator's own side.
func New(p NewMatchParams) (Match, error) {
	team1 := compactIDs(p.Team1)
	team2 := compactIDs(p.Team2)
	if err := ValidateRoster(team1, team2); err != nil {
		return Match{}, err
	}
	if err := ValidateScore(p.ScoreTeam1, p.ScoreTeam2); err != nil {
		return Match{}, err
	}

	now := p.Now.UTC()
	playedAt := p.PlayedAt.UTC()
	if playedAt.IsZero() {
		playedAt = now
	}

	m := Match{
		ID:         strings.TrimSpace(p.ID),
		CreatedBy:  strings.TrimSpace(p.CreatedBy),
		ScoreTeam1: p.ScoreTeam1,
		ScoreTeam2: p.ScoreTeam2,
		Version:    1,
		VenueID:    strings.TrimSpace(p.VenueID),
		PlayedAt:   playedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.Team1Player1, m.Team1Player2 = slotPair(team1)
	m.Team2Player1, m.Team2Player2 = slotPair(team2)

	if team := m.TeamOf(m.CreatedBy); team != TeamNone {
		m.stampTeam(team, m.CreatedBy, now)
	}
	m.Fingerprint = Fingerprint(m)
	return m, nil
}

// ValidateRoster requires equal non-empty sides and no profile in two slots.
func ValidateRoster(team1, team2 []string) error {
	if len(team1) == 0 || len(team2) == 0 {
		return fmt.Errorf("%w: both teams need at least one player", ErrInvalidRoster)
	}
	if len(team1) != len(team2) {
		return fmt.Errorf("%w: team sizes differ (%d vs %d)", ErrInvalidRoster, len(team1), len(team2))
	}
	if len(team1) > MaxPlayersPerTeam {
		return fmt.Errorf("%w: at most %d players per team", ErrInvalidRoster, MaxPlayersPerTeam)
	}

	seen := make(map[string]struct{}, len(team1)+len(team2))
	for _, id := range append(append([]string(nil), team1...), team2...) {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate player %s", ErrInvalidRoster, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func ValidateScore(scoreTeam1, scoreTeam2 int) error {
	if scoreTeam1 < 0 || scoreTeam2 < 0 {
		return fmt.Errorf("%w: scores must be >= 0", ErrInvalidScore)
	}
	return nil
}

// ApplyScoreUpdate bumps the version and leaves only the updater's side verified.
// A non-participant updater clears both sides.
func (m *Match) ApplyScoreUpdate(scoreTeam1, scoreTeam2 int, updatedBy string, now time.Time) error {
	if m.IsVerified {
		return fmt.Errorf("%w: match=%s", ErrMatchAlreadyVerified, m.ID)
	}
	if err := ValidateScore(scoreTeam1, scoreTeam2); err != nil {
		return err
	}

	now = now.UTC()
	m.ScoreTeam1 = scoreTeam1
	m.ScoreTeam2 = scoreTeam2
	m.Version++
	m.clearVerification()
	if team := m.TeamOf(updatedBy); team != TeamNone {
		m.stampTeam(team, strings.TrimSpace(updatedBy), now)
	}
	m.Fingerprint = Fingerprint(*m)
	m.UpdatedAt = now
	return nil
}

// ApplyVerification confirms the result for the profile's side. It reports
// false when the side had already confirmed.
func (m *Match) ApplyVerification(profileID string, now time.Time) (bool, error) {
	profileID = strings.TrimSpace(profileID)
	team := m.TeamOf(profileID)
	if team == TeamNone {
		return false, fmt.Errorf("%w: profile=%s match=%s", ErrNotAParticipant, profileID, m.ID)
	}
	if m.TeamVerified(team) {
		return false, nil
	}

	now = now.UTC()
	m.stampTeam(team, profileID, now)
	if m.TeamVerified(team.Other()) {
		m.IsVerified = true
		m.VerifiedBy = profileID
		verifiedAt := now
		m.VerifiedAt = &verifiedAt
	}
	m.UpdatedAt = now
	return true, nil
}

// ReplaceProfile rewrites every reference from oldID to newID.
func (m *Match) ReplaceProfile(oldID, newID string, now time.Time) (bool, error) {
	if oldID == "" || oldID == newID || !m.References(oldID) {
		return false, nil
	}
	if m.IsParticipant(oldID) && m.IsParticipant(newID) {
		return false, fmt.Errorf("%w: profile=%s match=%s", ErrProfileAlreadyInMatch, newID, m.ID)
	}

	fields := []*string{
		&m.CreatedBy,
		&m.Team1Player1, &m.Team1Player2, &m.Team2Player1, &m.Team2Player2,
		&m.Team1VerifiedBy, &m.Team2VerifiedBy, &m.VerifiedBy,
	}
	for _, f := range fields {
		if *f == oldID {
			*f = newID
		}
	}
	m.Fingerprint = Fingerprint(*m)
	m.UpdatedAt = now.UTC()
	return true, nil
}

func (m *Match) stampTeam(team Team, profileID string, at time.Time) {
	stamp := at
	switch team {
	case Team1:
		m.Team1VerifiedBy = profileID
		m.Team1VerifiedAt = &stamp
	case Team2:
		m.Team2VerifiedBy = profileID
		m.Team2VerifiedAt = &stamp
	}
}

func (m *Match) clearVerification() {
	m.Team1VerifiedBy = ""
	m.Team1VerifiedAt = nil
	m.Team2VerifiedBy = ""
	m.Team2VerifiedAt = nil
	m.IsVerified = false
	m.VerifiedBy = ""
	m.VerifiedAt = nil
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

func slotPair(ids []string) (string, string) {
	switch len(ids) {
	case 0:
		return "", ""
	case 1:
		return ids[0], ""
	default:
		return ids[0], ids[1]
	}
}
