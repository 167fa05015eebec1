package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
	qb "github.com/riskibarqy/match-ledger/internal/platform/querybuilder"
)

var (
	profileColumns   = mustColumns(profileTableModel{})
	matchColumns     = mustColumns(matchTableModel{})
	venueColumns     = mustColumns(venueTableModel{})
	knownUserColumns = mustColumns(knownUserTableModel{})
)

// Backend talks to the shared database directly. Score updates and
// verifications go through the stored procedures so the version check runs in
// one statement.
type Backend struct {
	db *sqlx.DB
}

var _ backend.Backend = (*Backend)(nil)

func NewBackend(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) GetProfile(ctx context.Context, id string) (profile.Profile, bool, error) {
	query, args, err := qb.Select(profileColumns...).From("profiles").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("build get profile query: %w", err)
	}

	var row profileTableModel
	if err := b.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, fmt.Errorf("get profile: %w", mapError(err))
	}
	return row.toDomain(), true, nil
}

func (b *Backend) FindProfileByUserID(ctx context.Context, userID string) (profile.Profile, bool, error) {
	if userID == "" {
		return profile.Profile{}, false, nil
	}
	query, args, err := qb.Select(profileColumns...).From("profiles").
		Where(qb.Eq("user_id", userID)).
		OrderBy("(claimed_by IS NULL) DESC", "created_at ASC").
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("build find profile by user query: %w", err)
	}

	var row profileTableModel
	if err := b.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, fmt.Errorf("find profile by user: %w", mapError(err))
	}
	return row.toDomain(), true, nil
}

func (b *Backend) ListProfilesByAccount(ctx context.Context, accountID string) ([]profile.Profile, error) {
	query, args, err := qb.Select(profileColumns...).From("profiles").
		Where(qb.Or(qb.Eq("user_id", accountID), qb.Eq("claimed_by", accountID))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list profiles by account query: %w", err)
	}
	return b.selectProfiles(ctx, query, args)
}

func (b *Backend) ListProfilesByIDs(ctx context.Context, ids []string) ([]profile.Profile, error) {
	if len(ids) == 0 {
		return []profile.Profile{}, nil
	}
	query, args, err := qb.Select(profileColumns...).From("profiles").
		Where(qb.Any("id", pq.Array(ids))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list profiles by ids query: %w", err)
	}
	return b.selectProfiles(ctx, query, args)
}

func (b *Backend) selectProfiles(ctx context.Context, query string, args []any) ([]profile.Profile, error) {
	var rows []profileTableModel
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select profiles: %w", mapError(err))
	}
	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (b *Backend) UpsertProfile(ctx context.Context, item profile.Profile) error {
	if err := item.ValidateBasic(); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	query, args, err := qb.InsertModel("profiles", profileRow(item), upsertSuffix("id", profileColumns, "created_at"))
	if err != nil {
		return fmt.Errorf("build upsert profile query: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert profile: %w", mapError(err))
	}
	return nil
}

func (b *Backend) UpsertVenue(ctx context.Context, item venue.Venue) error {
	query, args, err := qb.InsertModel("venues", venueRow(item), upsertSuffix("id", venueColumns, "created_at", "created_by"))
	if err != nil {
		return fmt.Errorf("build upsert venue query: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert venue: %w", mapError(err))
	}
	return nil
}

func (b *Backend) GetMatch(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := b.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", mapError(err))
	}
	return row.toDomain(), true, nil
}

func (b *Backend) ListMatchesByProfile(ctx context.Context, profileID string) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(qb.Or(
			qb.Eq("team1_player1", profileID),
			qb.Eq("team1_player2", profileID),
			qb.Eq("team2_player1", profileID),
			qb.Eq("team2_player2", profileID),
			qb.Eq("created_by", profileID),
		)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by profile query: %w", err)
	}

	var rows []matchTableModel
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by profile: %w", mapError(err))
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpsertMatch writes the full row. A verified stored row or one at a newer
// version is kept and reported as ErrMatchAlreadyVerified or
// ErrVersionConflict.
func (b *Backend) UpsertMatch(ctx context.Context, item match.Match) error {
	query, args, err := qb.InsertModel("matches", matchRow(item), guardedMatchUpsert())
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	result, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert match: %w", mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected upsert match: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, found, err := b.GetMatch(ctx, item.ID)
	if err != nil {
		return err
	}
	if found && existing.IsVerified {
		return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, item.ID)
	}
	return fmt.Errorf("%w: match=%s sent=%d stored=%d", backend.ErrVersionConflict, item.ID, item.Version, existing.Version)
}

// DeleteMatch removes an unverified match. Deleting a missing id is a no-op.
func (b *Backend) DeleteMatch(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("matches").
		Where(qb.Eq("id", id), qb.Expr("is_verified = ?", false)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete match query: %w", err)
	}

	result, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete match: %w", mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete match: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, found, err := b.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if found && existing.IsVerified {
		return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, id)
	}
	return nil
}

func (b *Backend) UpdateMatchScore(ctx context.Context, params backend.UpdateScoreParams) (match.Match, error) {
	var row matchTableModel
	err := b.db.GetContext(ctx, &row,
		"SELECT * FROM update_match_score($1, $2, $3, $4, $5)",
		params.MatchID, params.ScoreTeam1, params.ScoreTeam2, params.ExpectedVersion, nullString(params.UpdatedBy),
	)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match score: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func (b *Backend) VerifyMatchForTeam(ctx context.Context, matchID, profileID string) (match.Match, error) {
	var row matchTableModel
	err := b.db.GetContext(ctx, &row, "SELECT * FROM verify_match_for_team($1, $2)", matchID, profileID)
	if err != nil {
		return match.Match{}, fmt.Errorf("verify match for team: %w", mapError(err))
	}
	return row.toDomain(), nil
}

func (b *Backend) ListKnownUsers(ctx context.Context, ownerAccountID string) ([]knownuser.Edge, error) {
	query, args, err := qb.Select(knownUserColumns...).From("known_users").
		Where(qb.Eq("owner_account_id", ownerAccountID)).
		OrderBy("known_profile_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list known users query: %w", err)
	}

	var rows []knownUserTableModel
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list known users: %w", mapError(err))
	}
	out := make([]knownuser.Edge, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (b *Backend) UpsertKnownUsers(ctx context.Context, items []knownuser.Edge) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]knownUserTableModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, knownUserRow(item))
	}

	query, args, err := qb.InsertModels("known_users", rows, "ON CONFLICT (owner_account_id, known_profile_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build upsert known users query: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert known users: %w", mapError(err))
	}
	return nil
}

func mustColumns(model any) []string {
	cols, err := qb.ModelColumns(model)
	if err != nil {
		panic(err)
	}
	return cols
}
