package profile

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Profile, bool, error)
	GetByIDs(ctx context.Context, ids []string) ([]Profile, error)
	List(ctx context.Context) ([]Profile, error)
	ListByAccount(ctx context.Context, accountID string) ([]Profile, error)
	Upsert(ctx context.Context, item Profile) error
}
