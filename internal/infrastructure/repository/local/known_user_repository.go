package local

import (
	"context"
	"fmt"

	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
)

type KnownUserRepository struct {
	items *collection[knownuser.Edge]
}

func newKnownUserRepository(path string) (*KnownUserRepository, error) {
	items, err := newCollection(path, func(e knownuser.Edge) string { return e.ID }, cloneEdge)
	if err != nil {
		return nil, fmt.Errorf("open known users: %w", err)
	}
	return &KnownUserRepository{items: items}, nil
}

func (r *KnownUserRepository) ListByOwner(_ context.Context, ownerAccountID string) ([]knownuser.Edge, error) {
	return r.items.filter(func(e knownuser.Edge) bool {
		return e.OwnerAccountID == ownerAccountID
	}), nil
}

func (r *KnownUserRepository) ListByKnownProfile(_ context.Context, profileID string) ([]knownuser.Edge, error) {
	return r.items.filter(func(e knownuser.Edge) bool {
		return e.KnownProfileID == profileID
	}), nil
}

// Upsert normalizes the id from the (owner, profile) pair so the pair stays unique.
func (r *KnownUserRepository) Upsert(_ context.Context, item knownuser.Edge) error {
	if item.OwnerAccountID == "" || item.KnownProfileID == "" {
		return fmt.Errorf("upsert known user: owner and profile are required")
	}
	item.ID = knownuser.EdgeID(item.OwnerAccountID, item.KnownProfileID)
	return r.items.put(item)
}

func (r *KnownUserRepository) Delete(_ context.Context, id string) error {
	return r.items.remove(id)
}

func cloneEdge(e knownuser.Edge) knownuser.Edge {
	copied := e
	if e.SyncedAt != nil {
		t := *e.SyncedAt
		copied.SyncedAt = &t
	}
	return copied
}
