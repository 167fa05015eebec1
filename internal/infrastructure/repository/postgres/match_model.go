package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/match"
)

// matchTableModel has no synced_at column; that stamp only exists on devices.
type matchTableModel struct {
	ID              string         `db:"id"`
	CreatedBy       sql.NullString `db:"created_by"`
	Team1Player1    sql.NullString `db:"team1_player1"`
	Team1Player2    sql.NullString `db:"team1_player2"`
	Team2Player1    sql.NullString `db:"team2_player1"`
	Team2Player2    sql.NullString `db:"team2_player2"`
	ScoreTeam1      int            `db:"score_team1"`
	ScoreTeam2      int            `db:"score_team2"`
	Version         int64          `db:"version"`
	Team1VerifiedBy sql.NullString `db:"team1_verified_by"`
	Team1VerifiedAt *time.Time     `db:"team1_verified_at"`
	Team2VerifiedBy sql.NullString `db:"team2_verified_by"`
	Team2VerifiedAt *time.Time     `db:"team2_verified_at"`
	IsVerified      bool           `db:"is_verified"`
	VerifiedBy      sql.NullString `db:"verified_by"`
	VerifiedAt      *time.Time     `db:"verified_at"`
	Fingerprint     string         `db:"fingerprint"`
	VenueID         sql.NullString `db:"venue_id"`
	PlayedAt        time.Time      `db:"played_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func matchRow(m match.Match) matchTableModel {
	return matchTableModel{
		ID:              m.ID,
		CreatedBy:       nullString(m.CreatedBy),
		Team1Player1:    nullString(m.Team1Player1),
		Team1Player2:    nullString(m.Team1Player2),
		Team2Player1:    nullString(m.Team2Player1),
		Team2Player2:    nullString(m.Team2Player2),
		ScoreTeam1:      m.ScoreTeam1,
		ScoreTeam2:      m.ScoreTeam2,
		Version:         m.Version,
		Team1VerifiedBy: nullString(m.Team1VerifiedBy),
		Team1VerifiedAt: utcPtr(m.Team1VerifiedAt),
		Team2VerifiedBy: nullString(m.Team2VerifiedBy),
		Team2VerifiedAt: utcPtr(m.Team2VerifiedAt),
		IsVerified:      m.IsVerified,
		VerifiedBy:      nullString(m.VerifiedBy),
		VerifiedAt:      utcPtr(m.VerifiedAt),
		Fingerprint:     m.Fingerprint,
		VenueID:         nullString(m.VenueID),
		PlayedAt:        m.PlayedAt.UTC(),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func (r matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:              r.ID,
		CreatedBy:       r.CreatedBy.String,
		Team1Player1:    r.Team1Player1.String,
		Team1Player2:    r.Team1Player2.String,
		Team2Player1:    r.Team2Player1.String,
		Team2Player2:    r.Team2Player2.String,
		ScoreTeam1:      r.ScoreTeam1,
		ScoreTeam2:      r.ScoreTeam2,
		Version:         r.Version,
		Team1VerifiedBy: r.Team1VerifiedBy.String,
		Team1VerifiedAt: utcPtr(r.Team1VerifiedAt),
		Team2VerifiedBy: r.Team2VerifiedBy.String,
		Team2VerifiedAt: utcPtr(r.Team2VerifiedAt),
		IsVerified:      r.IsVerified,
		VerifiedBy:      r.VerifiedBy.String,
		VerifiedAt:      utcPtr(r.VerifiedAt),
		Fingerprint:     r.Fingerprint,
		VenueID:         r.VenueID.String,
		PlayedAt:        r.PlayedAt.UTC(),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func utcPtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := v.UTC()
	return &t
}
