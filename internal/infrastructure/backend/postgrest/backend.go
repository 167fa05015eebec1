package postgrest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/knownuser"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

func (c *Client) GetProfile(ctx context.Context, id string) (profile.Profile, bool, error) {
	rows, err := c.selectProfiles(ctx, newQuery().add("select", "*").eq("id", id).limit("1"))
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	if len(rows) == 0 {
		return profile.Profile{}, false, nil
	}
	return rows[0], true, nil
}

func (c *Client) FindProfileByUserID(ctx context.Context, userID string) (profile.Profile, bool, error) {
	if userID == "" {
		return profile.Profile{}, false, nil
	}
	rows, err := c.selectProfiles(ctx, newQuery().
		add("select", "*").
		eq("user_id", userID).
		order("claimed_by.nullsfirst,created_at.asc").
		limit("1"))
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("find profile by user: %w", err)
	}
	if len(rows) == 0 {
		return profile.Profile{}, false, nil
	}
	return rows[0], true, nil
}

func (c *Client) ListProfilesByAccount(ctx context.Context, accountID string) ([]profile.Profile, error) {
	rows, err := c.selectProfiles(ctx, newQuery().
		add("select", "*").
		or(filter("user_id", "eq", accountID), filter("claimed_by", "eq", accountID)).
		order("id.asc"))
	if err != nil {
		return nil, fmt.Errorf("list profiles by account: %w", err)
	}
	return rows, nil
}

func (c *Client) ListProfilesByIDs(ctx context.Context, ids []string) ([]profile.Profile, error) {
	if len(ids) == 0 {
		return []profile.Profile{}, nil
	}
	rows, err := c.selectProfiles(ctx, newQuery().add("select", "*").in("id", ids).order("id.asc"))
	if err != nil {
		return nil, fmt.Errorf("list profiles by ids: %w", err)
	}
	return rows, nil
}

func (c *Client) selectProfiles(ctx context.Context, q *query) ([]profile.Profile, error) {
	var rows []profileRow
	if err := c.do(ctx, request{method: http.MethodGet, path: "profiles", query: q}, &rows); err != nil {
		return nil, err
	}
	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (c *Client) UpsertProfile(ctx context.Context, item profile.Profile) error {
	if err := item.ValidateBasic(); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "profiles",
		query:  newQuery().add("on_conflict", "id"),
		body:   []profileRow{toProfileRow(item)},
		prefer: preferUpsert,
	}, nil)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (c *Client) UpsertVenue(ctx context.Context, item venue.Venue) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "venues",
		query:  newQuery().add("on_conflict", "id"),
		body:   []venueRow{toVenueRow(item)},
		prefer: preferUpsert,
	}, nil)
	if err != nil {
		return fmt.Errorf("upsert venue: %w", err)
	}
	return nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (match.Match, bool, error) {
	var rows []matchRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "matches",
		query:  newQuery().add("select", "*").eq("id", id).limit("1"),
	}, &rows)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	if len(rows) == 0 {
		return match.Match{}, false, nil
	}
	return rows[0].toDomain(), true, nil
}

func (c *Client) ListMatchesByProfile(ctx context.Context, profileID string) ([]match.Match, error) {
	var rows []matchRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "matches",
		query: newQuery().
			add("select", "*").
			or(
				filter("team1_player1", "eq", profileID),
				filter("team1_player2", "eq", profileID),
				filter("team2_player1", "eq", profileID),
				filter("team2_player2", "eq", profileID),
				filter("created_by", "eq", profileID),
			).
			order("id.asc"),
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("list matches by profile: %w", err)
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpsertMatch goes through upsert_match so a verified row or one at a newer
// version is rejected instead of overwritten.
func (c *Client) UpsertMatch(ctx context.Context, item match.Match) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "rpc/upsert_match",
		body:   upsertMatchArgs{Row: toMatchRow(item)},
	}, nil)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

// DeleteMatch removes an unverified match; a missing id is a no-op.
func (c *Client) DeleteMatch(ctx context.Context, id string) error {
	var deleted []matchRow
	err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "matches",
		query:  newQuery().eq("id", id).add("is_verified", "is.false"),
		prefer: preferRepresenting,
	}, &deleted)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if len(deleted) > 0 {
		return nil
	}

	existing, found, err := c.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if found && existing.IsVerified {
		return fmt.Errorf("%w: match=%s", match.ErrMatchAlreadyVerified, id)
	}
	return nil
}

func (c *Client) UpdateMatchScore(ctx context.Context, params backend.UpdateScoreParams) (match.Match, error) {
	var row matchRow
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "rpc/update_match_score",
		body: updateScoreArgs{
			MatchID:         params.MatchID,
			ScoreTeam1:      params.ScoreTeam1,
			ScoreTeam2:      params.ScoreTeam2,
			ExpectedVersion: params.ExpectedVersion,
			UpdatedBy:       nullable(params.UpdatedBy),
		},
	}, &row)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match score: %w", err)
	}
	return row.toDomain(), nil
}

func (c *Client) VerifyMatchForTeam(ctx context.Context, matchID, profileID string) (match.Match, error) {
	var row matchRow
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "rpc/verify_match_for_team",
		body:   verifyArgs{MatchID: matchID, ProfileID: profileID},
	}, &row)
	if err != nil {
		return match.Match{}, fmt.Errorf("verify match for team: %w", err)
	}
	return row.toDomain(), nil
}

func (c *Client) ListKnownUsers(ctx context.Context, ownerAccountID string) ([]knownuser.Edge, error) {
	var rows []knownUserRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "known_users",
		query:  newQuery().add("select", "*").eq("owner_account_id", ownerAccountID).order("known_profile_id.asc"),
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("list known users: %w", err)
	}
	out := make([]knownuser.Edge, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (c *Client) UpsertKnownUsers(ctx context.Context, items []knownuser.Edge) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]knownUserRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, toKnownUserRow(item))
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "known_users",
		query:  newQuery().add("on_conflict", "owner_account_id,known_profile_id"),
		body:   rows,
		prefer: preferIgnore,
	}, nil)
	if err != nil {
		return fmt.Errorf("upsert known users: %w", err)
	}
	return nil
}
