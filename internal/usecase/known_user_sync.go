package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
)

// syncKnownUsers rebuilds the account's known-user edges from local match
// history, uploads the unsynced ones whose target profile exists remotely,
// then downloads the remote edges and their target profiles. It runs before
// match download so downloaded matches can show player names right away.
func (s *SyncService) syncKnownUsers(ctx context.Context, accountID string) (int, int, error) {
	if err := s.buildKnownUsers(ctx, accountID); err != nil {
		return 0, 0, err
	}

	uploaded, err := s.uploadKnownUsers(ctx, accountID)
	if err != nil {
		return uploaded, 0, err
	}

	downloaded, targets, err := s.downloadKnownUsers(ctx, accountID)
	if err != nil {
		return uploaded, downloaded, err
	}

	fetched, err := s.fetchProfiles(ctx, targets)
	if err != nil {
		return uploaded, downloaded, err
	}
	for _, item := range fetched {
		if _, err := s.profileService.adoptRemote(ctx, item); err != nil {
			return uploaded, downloaded, err
		}
	}
	return uploaded, downloaded, nil
}

func (s *SyncService) buildKnownUsers(ctx context.Context, accountID string) error {
	matches, err := s.matches.List(ctx)
	if err != nil {
		return fmt.Errorf("list local matches: %w", err)
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("list local profiles: %w", err)
	}
	byID := make(map[string]profile.Profile, len(profiles))
	for _, item := range profiles {
		byID[item.ID] = item
	}

	existing, err := s.knownUsers.ListByOwner(ctx, accountID)
	if err != nil {
		return fmt.Errorf("list local known users: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, edge := range existing {
		have[edge.ID] = struct{}{}
	}

	for _, edge := range knownuser.BuildFromMatches(accountID, matches, byID, s.now()) {
		if _, ok := have[edge.ID]; ok {
			continue
		}
		if err := s.knownUsers.Upsert(ctx, edge); err != nil {
			return fmt.Errorf("save known user: %w", err)
		}
	}
	return nil
}

func (s *SyncService) uploadKnownUsers(ctx context.Context, accountID string) (int, error) {
	edges, err := s.knownUsers.ListByOwner(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list local known users: %w", err)
	}

	pending := make([]knownuser.Edge, 0, len(edges))
	targetIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.SyncedAt != nil {
			continue
		}
		pending = append(pending, edge)
		targetIDs = append(targetIDs, edge.KnownProfileID)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	present, err := s.remote.ListProfilesByIDs(ctx, targetIDs)
	if err != nil {
		return 0, fmt.Errorf("check known user targets: %w", err)
	}
	confirmed := make(map[string]struct{}, len(present))
	for _, item := range present {
		confirmed[item.ID] = struct{}{}
	}

	upload := make([]knownuser.Edge, 0, len(pending))
	for _, edge := range pending {
		if _, ok := confirmed[edge.KnownProfileID]; ok {
			upload = append(upload, edge)
		}
	}
	if len(upload) == 0 {
		return 0, nil
	}
	if err := s.remote.UpsertKnownUsers(ctx, upload); err != nil {
		return 0, fmt.Errorf("upload known users: %w", err)
	}

	syncedAt := s.now().UTC()
	for _, edge := range upload {
		edge.SyncedAt = &syncedAt
		if err := s.knownUsers.Upsert(ctx, edge); err != nil {
			return 0, fmt.Errorf("mark known user synced: %w", err)
		}
	}
	return len(upload), nil
}

func (s *SyncService) downloadKnownUsers(ctx context.Context, accountID string) (int, []string, error) {
	remotes, err := s.remote.ListKnownUsers(ctx, accountID)
	if err != nil {
		return 0, nil, fmt.Errorf("list remote known users: %w", err)
	}
	locals, err := s.knownUsers.ListByOwner(ctx, accountID)
	if err != nil {
		return 0, nil, fmt.Errorf("list local known users: %w", err)
	}
	localByID := make(map[string]knownuser.Edge, len(locals))
	for _, edge := range locals {
		localByID[edge.ID] = edge
	}

	downloaded := 0
	targets := make([]string, 0, len(remotes))
	syncedAt := s.now().UTC()
	for _, edge := range remotes {
		targets = append(targets, edge.KnownProfileID)

		edge.ID = knownuser.EdgeID(edge.OwnerAccountID, edge.KnownProfileID)
		if local, ok := localByID[edge.ID]; ok && local.SyncedAt != nil {
			continue
		}
		edge.SyncedAt = &syncedAt
		if err := s.knownUsers.Upsert(ctx, edge); err != nil {
			return downloaded, nil, fmt.Errorf("save remote known user: %w", err)
		}
		downloaded++
	}
	return downloaded, targets, nil
}
