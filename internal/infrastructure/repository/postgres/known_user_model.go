package postgres

import (
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
)

type knownUserTableModel struct {
	ID             string    `db:"id"`
	OwnerAccountID string    `db:"owner_account_id"`
	KnownProfileID string    `db:"known_profile_id"`
	CreatedAt      time.Time `db:"created_at"`
}

func knownUserRow(e knownuser.Edge) knownUserTableModel {
	return knownUserTableModel{
		ID:             knownuser.EdgeID(e.OwnerAccountID, e.KnownProfileID),
		OwnerAccountID: e.OwnerAccountID,
		KnownProfileID: e.KnownProfileID,
		CreatedAt:      e.CreatedAt.UTC(),
	}
}

func (r knownUserTableModel) toDomain() knownuser.Edge {
	return knownuser.Edge{
		ID:             r.ID,
		OwnerAccountID: r.OwnerAccountID,
		KnownProfileID: r.KnownProfileID,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}
