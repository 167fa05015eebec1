package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

// Backend is an in-process remote store with the same compare-and-swap rules
// as the SQL procedures. It backs offline demo mode and tests.
type Backend struct {
	mu         sync.RWMutex
	profiles   map[string]profile.Profile
	matches    map[string]match.Match
	venues     map[string]venue.Venue
	knownUsers map[string]knownuser.Edge

	unavailable atomic.Bool
	now         func() time.Time
}

func NewBackend() *Backend {
	return &Backend{
		profiles:   make(map[string]profile.Profile),
		matches:    make(map[string]match.Match),
		venues:     make(map[string]venue.Venue),
		knownUsers: make(map[string]knownuser.Edge),
		now:        time.Now,
	}
}

// SetUnavailable makes every call fail as if the network were down.
func (b *Backend) SetUnavailable(v bool) {
	b.unavailable.Store(v)
}

func (b *Backend) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *Backend) check() error {
	if b.unavailable.Load() {
		return backend.ErrUnavailable
	}
	return nil
}

func (b *Backend) GetProfile(_ context.Context, id string) (profile.Profile, bool, error) {
	if err := b.check(); err != nil {
		return profile.Profile{}, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.profiles[id]
	return p, ok, nil
}

func (b *Backend) FindProfileByUserID(_ context.Context, userID string) (profile.Profile, bool, error) {
	if err := b.check(); err != nil {
		return profile.Profile{}, false, err
	}
	if userID == "" {
		return profile.Profile{}, false, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	candidates := make([]profile.Profile, 0)
	for _, p := range b.profiles {
		if p.UserID == userID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return profile.Profile{}, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i].ClaimedBy == "", candidates[j].ClaimedBy == ""
		if ci != cj {
			return ci
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates[0], true, nil
}

func (b *Backend) ListProfilesByAccount(_ context.Context, accountID string) ([]profile.Profile, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]profile.Profile, 0)
	for _, p := range b.profiles {
		if p.OwnedBy(accountID) {
			out = append(out, p)
		}
	}
	sortProfiles(out)
	return out, nil
}

func (b *Backend) ListProfilesByIDs(_ context.Context, ids []string) ([]profile.Profile, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]profile.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := b.profiles[id]; ok {
			out = append(out, p)
		}
	}
	sortProfiles(out)
	return out, nil
}

func (b *Backend) UpsertProfile(_ context.Context, item profile.Profile) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := item.ValidateBasic(); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.profiles[item.ID] = item
	return nil
}

func (b *Backend) UpsertVenue(_ context.Context, item venue.Venue) error {
	if err := b.check(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.venues[item.ID] = item
	return nil
}

func (b *Backend) GetVenue(id string) (venue.Venue, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.venues[id]
	return v, ok
}

func (b *Backend) GetMatch(_ context.Context, id string) (match.Match, bool, error) {
	if err := b.check(); err != nil {
		return match.Match{}, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.matches[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return match.Clone(m), true, nil
}

func (b *Backend) ListMatchesByProfile(_ context.Context, profileID string) ([]match.Match, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range b.matches {
		if m.IsParticipant(profileID) || m.CreatedBy == profileID {
			out = append(out, match.Clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertMatch stores the row as sent unless the stored row is verified or
// already at a newer version. Sync stamps and pending pushes are local state
// and never kept remotely.
func (b *Backend) UpsertMatch(_ context.Context, item match.Match) error {
	if err := b.check(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.matches[item.ID]; ok {
		if existing.IsVerified {
			return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, item.ID)
		}
		if existing.Version > item.Version {
			return fmt.Errorf("%w: match=%s sent=%d stored=%d", backend.ErrVersionConflict, item.ID, item.Version, existing.Version)
		}
	}

	stored := match.Clone(item)
	stored.SyncedAt = nil
	stored.Pending = nil
	b.matches[item.ID] = stored
	return nil
}

func (b *Backend) DeleteMatch(_ context.Context, id string) error {
	if err := b.check(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[id]
	if !ok {
		return nil
	}
	if m.IsVerified {
		return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, id)
	}
	delete(b.matches, id)
	return nil
}

func (b *Backend) UpdateMatchScore(_ context.Context, params backend.UpdateScoreParams) (match.Match, error) {
	if err := b.check(); err != nil {
		return match.Match{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[params.MatchID]
	if !ok {
		return match.Match{}, fmt.Errorf("%w: match=%s", backend.ErrNotFound, params.MatchID)
	}
	if m.IsVerified {
		return match.Match{}, fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, params.MatchID)
	}
	if m.Version != params.ExpectedVersion {
		return match.Match{}, fmt.Errorf("%w: match=%s expected=%d stored=%d", backend.ErrVersionConflict, params.MatchID, params.ExpectedVersion, m.Version)
	}

	if err := m.ApplyScoreUpdate(params.ScoreTeam1, params.ScoreTeam2, params.UpdatedBy, b.now()); err != nil {
		return match.Match{}, err
	}
	b.matches[m.ID] = m
	return match.Clone(m), nil
}

func (b *Backend) VerifyMatchForTeam(_ context.Context, matchID, profileID string) (match.Match, error) {
	if err := b.check(); err != nil {
		return match.Match{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[matchID]
	if !ok {
		return match.Match{}, fmt.Errorf("%w: match=%s", backend.ErrNotFound, matchID)
	}
	changed, err := m.ApplyVerification(profileID, b.now())
	if err != nil {
		return match.Match{}, err
	}
	if changed {
		b.matches[m.ID] = m
	}
	return match.Clone(m), nil
}

func (b *Backend) ListKnownUsers(_ context.Context, ownerAccountID string) ([]knownuser.Edge, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]knownuser.Edge, 0)
	for _, e := range b.knownUsers {
		if e.OwnerAccountID == ownerAccountID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KnownProfileID < out[j].KnownProfileID })
	return out, nil
}

func (b *Backend) UpsertKnownUsers(_ context.Context, items []knownuser.Edge) error {
	if err := b.check(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range items {
		e.ID = knownuser.EdgeID(e.OwnerAccountID, e.KnownProfileID)
		e.SyncedAt = nil
		b.knownUsers[e.ID] = e
	}
	return nil
}

func sortProfiles(items []profile.Profile) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
