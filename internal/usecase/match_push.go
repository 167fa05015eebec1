package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
)

func (s *SyncService) lockMatch(matchID string) func() {
	return s.matchLocks.Lock(matchID)
}

// PushPending replays the queued edits of a synced match against the remote.
// Pushes for one match run one at a time, so compare-and-swap calls reach the
// backend in version order. When the remote rejects a push the local copy is
// replaced with the remote row and ErrMatchVersionConflict is returned. A
// transient failure keeps the edits queued for the next sync.
func (s *SyncService) PushPending(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.PushPending", matchAttr(matchID))
	defer span.End()

	unlock := s.pushLanes.Lock(matchID)
	defer unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snapshot, exists, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%w: get match: %w", errLocalStore, err)
		}
		// Unsynced rows go up whole through UploadMatch.
		if !exists || !snapshot.IsSynced() || !snapshot.HasPendingPush() {
			return nil
		}

		remoteCopy, verifier, err := s.pushNext(ctx, snapshot)
		if err != nil {
			return s.resolvePushFailure(ctx, matchID, err)
		}
		done, err := s.settlePush(ctx, snapshot, verifier, remoteCopy)
		if err != nil || done {
			return err
		}
	}
}

// pushNext sends the oldest queued edit: the score first, then verifications
// in the order they were made. verifier is empty for a score push.
func (s *SyncService) pushNext(ctx context.Context, snapshot match.Match) (match.Match, string, error) {
	pending := snapshot.Pending
	if pending.BaseVersion > 0 {
		updated, err := s.remote.UpdateMatchScore(ctx, backend.UpdateScoreParams{
			MatchID:         snapshot.ID,
			ScoreTeam1:      snapshot.ScoreTeam1,
			ScoreTeam2:      snapshot.ScoreTeam2,
			ExpectedVersion: pending.BaseVersion,
			UpdatedBy:       pending.UpdatedBy,
		})
		return updated, "", err
	}

	verifier := pending.Verifiers[0]
	updated, err := s.remote.VerifyMatchForTeam(ctx, snapshot.ID, verifier)
	return updated, verifier, err
}

// settlePush records an accepted push. It reports true once nothing is left
// to push, at which point the local row is the remote row.
func (s *SyncService) settlePush(ctx context.Context, snapshot match.Match, verifier string, remoteCopy match.Match) (bool, error) {
	unlock := s.lockMatch(snapshot.ID)
	defer unlock()

	current, exists, err := s.matches.GetByID(ctx, snapshot.ID)
	if err != nil {
		return false, fmt.Errorf("%w: reload match: %w", errLocalStore, err)
	}
	if !exists || !current.IsSynced() {
		return true, nil
	}

	changed := !sameRevision(current, snapshot)
	if verifier == "" {
		rescored := current.Version != snapshot.Version
		if !rescored {
			current.Version = remoteCopy.Version
		}
		current.SettleScorePush(remoteCopy.Version, rescored)
	} else {
		current.SettleVerifyPush(verifier)
	}

	if !changed && !current.HasPendingPush() {
		item := match.Clone(remoteCopy)
		item.SyncedAt = current.SyncedAt
		item.Pending = nil
		if err := s.matches.Upsert(ctx, item); err != nil {
			return false, fmt.Errorf("%w: save pushed match: %w", errLocalStore, err)
		}
		return true, nil
	}
	if err := s.matches.Upsert(ctx, current); err != nil {
		return false, fmt.Errorf("%w: save pending match: %w", errLocalStore, err)
	}
	return false, nil
}

func (s *SyncService) resolvePushFailure(ctx context.Context, matchID string, pushErr error) error {
	switch {
	case isRemoteRejection(pushErr), errors.Is(pushErr, match.ErrNotAParticipant):
		s.logger.WarnContext(ctx, "remote rejected match push, refreshing local copy",
			"match_id", matchID,
			"error", pushErr,
		)
		if err := s.refreshFromRemote(ctx, matchID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrMatchVersionConflict, pushErr)
	case errors.Is(pushErr, backend.ErrNotFound):
		// Nothing left to push against.
		if err := s.dropPending(ctx, matchID); err != nil {
			return err
		}
		return fmt.Errorf("push match %s: %w", matchID, pushErr)
	default:
		return fmt.Errorf("push match %s: %w", matchID, pushErr)
	}
}

// refreshFromRemote replaces the local row with the remote one, dropping any
// queued edits.
func (s *SyncService) refreshFromRemote(ctx context.Context, matchID string) error {
	remoteCopy, found, err := s.remote.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("refresh match after conflict: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match=%s", backend.ErrNotFound, matchID)
	}

	unlock := s.lockMatch(matchID)
	defer unlock()

	local, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("%w: get local match: %w", errLocalStore, err)
	}
	if !exists {
		return nil
	}
	item := match.Clone(remoteCopy)
	item.Pending = nil
	item.SyncedAt = local.SyncedAt
	if item.SyncedAt == nil {
		syncedAt := s.now().UTC()
		item.SyncedAt = &syncedAt
	}
	if err := s.matches.Upsert(ctx, item); err != nil {
		return fmt.Errorf("%w: save remote match: %w", errLocalStore, err)
	}
	return nil
}

func (s *SyncService) dropPending(ctx context.Context, matchID string) error {
	unlock := s.lockMatch(matchID)
	defer unlock()

	local, exists, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("%w: get local match: %w", errLocalStore, err)
	}
	if !exists || local.Pending == nil {
		return nil
	}
	local.Pending = nil
	if err := s.matches.Upsert(ctx, local); err != nil {
		return fmt.Errorf("%w: save match: %w", errLocalStore, err)
	}
	return nil
}

// pushPendingMatches replays queued edits for every synced local match. A
// rejected push is counted and the pass moves on; any other failure stops it.
func (s *SyncService) pushPendingMatches(ctx context.Context) (int, int, error) {
	items, err := s.matches.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list local matches: %w", err)
	}

	pushed, rejected := 0, 0
	for _, item := range items {
		if !item.IsSynced() || !item.HasPendingPush() {
			continue
		}
		err := s.PushPending(ctx, item.ID)
		switch {
		case err == nil:
			pushed++
		case errors.Is(err, ErrMatchVersionConflict):
			rejected++
		default:
			return pushed, rejected, err
		}
	}
	return pushed, rejected, nil
}

// isRemoteRejection reports errors where the remote kept its own row.
func isRemoteRejection(err error) bool {
	return errors.Is(err, backend.ErrVersionConflict) || errors.Is(err, match.ErrMatchAlreadyVerified)
}
