package knownuser

import "context"

type Repository interface {
	ListByOwner(ctx context.Context, ownerAccountID string) ([]Edge, error)
	ListByKnownProfile(ctx context.Context, profileID string) ([]Edge, error)
	Upsert(ctx context.Context, item Edge) error
	Delete(ctx context.Context, id string) error
}
