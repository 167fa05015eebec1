package local

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/match-ledger/internal/domain/match"
)

type MatchRepository struct {
	items *collection[match.Match]
}

func newMatchRepository(path string) (*MatchRepository, error) {
	items, err := newCollection(path, func(m match.Match) string { return m.ID }, match.Clone)
	if err != nil {
		return nil, fmt.Errorf("open matches: %w", err)
	}
	return &MatchRepository{items: items}, nil
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	item, ok := r.items.get(id)
	return item, ok, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	return newestFirst(r.items.filter(nil)), nil
}

func (r *MatchRepository) ListByProfile(_ context.Context, profileID string) ([]match.Match, error) {
	profileID = strings.TrimSpace(profileID)
	return newestFirst(r.items.filter(func(m match.Match) bool {
		return profileID != "" && (m.CreatedBy == profileID || m.IsParticipant(profileID))
	})), nil
}

func (r *MatchRepository) ListUnsyncedByCreator(_ context.Context, creatorID string) ([]match.Match, error) {
	creatorID = strings.TrimSpace(creatorID)
	return r.items.filter(func(m match.Match) bool {
		return creatorID != "" && m.CreatedBy == creatorID && !m.IsSynced()
	}), nil
}

func (r *MatchRepository) ListReferencing(_ context.Context, profileID string) ([]match.Match, error) {
	return r.items.filter(func(m match.Match) bool {
		return m.References(profileID)
	}), nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("upsert match: id is required")
	}
	return r.items.put(item)
}

func (r *MatchRepository) Delete(_ context.Context, id string) error {
	return r.items.remove(id)
}

func newestFirst(items []match.Match) []match.Match {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PlayedAt.After(items[j].PlayedAt)
	})
	return items
}
