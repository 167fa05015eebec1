package venue

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Venue, bool, error)
	List(ctx context.Context) ([]Venue, error)
	Upsert(ctx context.Context, item Venue) error
}
