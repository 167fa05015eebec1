package match

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)
	List(ctx context.Context) ([]Match, error)
	// ListByProfile returns matches where the profile plays or is the creator.
	ListByProfile(ctx context.Context, profileID string) ([]Match, error)
	ListUnsyncedByCreator(ctx context.Context, creatorID string) ([]Match, error)
	// ListReferencing returns matches carrying the profile id in any reference field.
	ListReferencing(ctx context.Context, profileID string) ([]Match, error)
	Upsert(ctx context.Context, item Match) error
	Delete(ctx context.Context, id string) error
}
