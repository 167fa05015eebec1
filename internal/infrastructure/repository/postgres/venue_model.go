package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

type venueTableModel struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Address   sql.NullString `db:"address"`
	Latitude  *float64       `db:"latitude"`
	Longitude *float64       `db:"longitude"`
	CreatedBy sql.NullString `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func venueRow(v venue.Venue) venueTableModel {
	return venueTableModel{
		ID:        v.ID,
		Name:      v.Name,
		Address:   nullString(v.Address),
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		CreatedBy: nullString(v.CreatedBy),
		CreatedAt: v.CreatedAt.UTC(),
		UpdatedAt: v.UpdatedAt.UTC(),
	}
}
