package knownuser

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
)

// Edge records that an account has played with or against a registered profile.
type Edge struct {
	ID             string     `json:"id"`
	OwnerAccountID string     `json:"owner_account_id"`
	KnownProfileID string     `json:"known_profile_id"`
	SyncedAt       *time.Time `json:"synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func EdgeID(ownerAccountID, knownProfileID string) string {
	return ownerAccountID + "::" + knownProfileID
}

func NewEdge(ownerAccountID, knownProfileID string, now time.Time) Edge {
	return Edge{
		ID:             EdgeID(ownerAccountID, knownProfileID),
		OwnerAccountID: ownerAccountID,
		KnownProfileID: knownProfileID,
		CreatedAt:      now.UTC(),
	}
}

// BuildFromMatches derives edges from local match history. Only matches where
// one of the owner's profiles holds a slot count, only profiles that carry an
// account id qualify, and the owner's own profiles are never included.
func BuildFromMatches(ownerAccountID string, matches []match.Match, profiles map[string]profile.Profile, now time.Time) []Edge {
	ownerAccountID = strings.TrimSpace(ownerAccountID)
	if ownerAccountID == "" {
		return nil
	}

	seen := make(map[string]struct{})
	out := make([]Edge, 0)
	for _, m := range matches {
		if !playedIn(ownerAccountID, m, profiles) {
			continue
		}
		for _, playerID := range m.PlayerIDs() {
			if _, ok := seen[playerID]; ok {
				continue
			}
			p, ok := profiles[playerID]
			if !ok || !p.Syncable() || p.OwnedBy(ownerAccountID) {
				continue
			}
			seen[playerID] = struct{}{}
			out = append(out, NewEdge(ownerAccountID, playerID, now))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].KnownProfileID < out[j].KnownProfileID
	})
	return out
}

func playedIn(ownerAccountID string, m match.Match, profiles map[string]profile.Profile) bool {
	for _, playerID := range m.PlayerIDs() {
		if p, ok := profiles[playerID]; ok && p.OwnedBy(ownerAccountID) {
			return true
		}
	}
	return false
}
