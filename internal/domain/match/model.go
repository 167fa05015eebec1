package match

import (
	"strings"
	"time"
)

type Team int

const (
	TeamNone Team = 0
	Team1    Team = 1
	Team2    Team = 2
)

func (t Team) Other() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	default:
		return TeamNone
	}
}

type Status string

const (
	StatusUnverified        Status = "unverified"
	StatusPartiallyVerified Status = "partially_verified"
	StatusVerified          Status = "verified"
)

// Match is one recorded game. Empty string fields stand for null.
type Match struct {
	ID              string     `json:"id"`
	CreatedBy       string     `json:"created_by,omitempty"`
	Team1Player1    string     `json:"team1_player1,omitempty"`
	Team1Player2    string     `json:"team1_player2,omitempty"`
	Team2Player1    string     `json:"team2_player1,omitempty"`
	Team2Player2    string     `json:"team2_player2,omitempty"`
	ScoreTeam1      int        `json:"score_team1"`
	ScoreTeam2      int        `json:"score_team2"`
	Version         int64      `json:"version"`
	Team1VerifiedBy string     `json:"team1_verified_by,omitempty"`
	Team1VerifiedAt *time.Time `json:"team1_verified_at,omitempty"`
	Team2VerifiedBy string     `json:"team2_verified_by,omitempty"`
	Team2VerifiedAt *time.Time `json:"team2_verified_at,omitempty"`
	IsVerified      bool       `json:"is_verified"`
	VerifiedBy      string     `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	Fingerprint     string     `json:"fingerprint"`
	VenueID         string     `json:"venue_id,omitempty"`
	PlayedAt        time.Time  `json:"played_at"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Pending holds edits to a synced match the remote has not accepted yet.
	// Like SyncedAt it is local state and never sent.
	Pending *PendingPush `json:"pending,omitempty"`
}

// Slots returns the four player slots in fixed order, empty entries included.
func (m Match) Slots() [4]string {
	return [4]string{m.Team1Player1, m.Team1Player2, m.Team2Player1, m.Team2Player2}
}

// PlayerIDs returns the occupied slots.
func (m Match) PlayerIDs() []string {
	out := make([]string, 0, 4)
	for _, id := range m.Slots() {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}

func (m Match) TeamOf(profileID string) Team {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return TeamNone
	}
	switch profileID {
	case m.Team1Player1, m.Team1Player2:
		return Team1
	case m.Team2Player1, m.Team2Player2:
		return Team2
	default:
		return TeamNone
	}
}

func (m Match) IsParticipant(profileID string) bool {
	return m.TeamOf(profileID) != TeamNone
}

// References reports whether the profile id appears in any foreign-key field.
func (m Match) References(profileID string) bool {
	if strings.TrimSpace(profileID) == "" {
		return false
	}
	switch profileID {
	case m.CreatedBy, m.Team1VerifiedBy, m.Team2VerifiedBy, m.VerifiedBy:
		return true
	}
	return m.IsParticipant(profileID)
}

func (m Match) TeamVerified(team Team) bool {
	switch team {
	case Team1:
		return m.Team1VerifiedBy != ""
	case Team2:
		return m.Team2VerifiedBy != ""
	default:
		return false
	}
}

func (m Match) Status() Status {
	t1 := m.TeamVerified(Team1)
	t2 := m.TeamVerified(Team2)
	switch {
	case t1 && t2:
		return StatusVerified
	case t1 || t2:
		return StatusPartiallyVerified
	default:
		return StatusUnverified
	}
}

// AwaitingTeam returns the side whose confirmation is still missing, or TeamNone
// when the match is verified or neither side has confirmed yet.
func (m Match) AwaitingTeam() Team {
	if m.Status() != StatusPartiallyVerified {
		return TeamNone
	}
	if m.TeamVerified(Team1) {
		return Team2
	}
	return Team1
}

func (m Match) IsSynced() bool {
	return m.SyncedAt != nil
}

func Clone(m Match) Match {
	copied := m
	copied.Team1VerifiedAt = cloneTime(m.Team1VerifiedAt)
	copied.Team2VerifiedAt = cloneTime(m.Team2VerifiedAt)
	copied.VerifiedAt = cloneTime(m.VerifiedAt)
	copied.SyncedAt = cloneTime(m.SyncedAt)
	copied.Pending = m.Pending.clone()
	return copied
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
