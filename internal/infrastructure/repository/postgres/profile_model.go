package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/profile"
)

type profileTableModel struct {
	ID              string         `db:"id"`
	UserID          sql.NullString `db:"user_id"`
	IsPlaceholder   bool           `db:"is_placeholder"`
	PlaceholderCode sql.NullString `db:"placeholder_code"`
	ClaimedBy       sql.NullString `db:"claimed_by"`
	DefaultVenueID  sql.NullString `db:"default_venue_id"`
	DisplayName     string         `db:"display_name"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func profileRow(p profile.Profile) profileTableModel {
	return profileTableModel{
		ID:              p.ID,
		UserID:          nullString(p.UserID),
		IsPlaceholder:   p.IsPlaceholder,
		PlaceholderCode: nullString(p.PlaceholderCode),
		ClaimedBy:       nullString(p.ClaimedBy),
		DefaultVenueID:  nullString(p.DefaultVenueID),
		DisplayName:     p.DisplayName,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

func (m profileTableModel) toDomain() profile.Profile {
	return profile.Profile{
		ID:              m.ID,
		UserID:          m.UserID.String,
		IsPlaceholder:   m.IsPlaceholder,
		PlaceholderCode: m.PlaceholderCode.String,
		ClaimedBy:       m.ClaimedBy.String,
		DefaultVenueID:  m.DefaultVenueID.String,
		DisplayName:     m.DisplayName,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}
