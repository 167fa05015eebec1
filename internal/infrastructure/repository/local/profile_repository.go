package local

import (
	"context"
	"fmt"

	"github.com/riskibarqy/match-ledger/internal/domain/profile"
)

type ProfileRepository struct {
	items *collection[profile.Profile]
}

func newProfileRepository(path string) (*ProfileRepository, error) {
	items, err := newCollection(path, func(p profile.Profile) string { return p.ID }, cloneProfile)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	return &ProfileRepository{items: items}, nil
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (profile.Profile, bool, error) {
	item, ok := r.items.get(id)
	return item, ok, nil
}

func (r *ProfileRepository) GetByIDs(_ context.Context, ids []string) ([]profile.Profile, error) {
	out := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items.get(id); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *ProfileRepository) List(_ context.Context) ([]profile.Profile, error) {
	return r.items.filter(nil), nil
}

func (r *ProfileRepository) ListByAccount(_ context.Context, accountID string) ([]profile.Profile, error) {
	return r.items.filter(func(p profile.Profile) bool {
		return p.OwnedBy(accountID)
	}), nil
}

func (r *ProfileRepository) Upsert(_ context.Context, item profile.Profile) error {
	if err := item.ValidateBasic(); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return r.items.put(item)
}

func cloneProfile(p profile.Profile) profile.Profile {
	return p
}
