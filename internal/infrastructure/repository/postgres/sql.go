package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
)

// SQLSTATEs raised by update_match_score and verify_match_for_team.
const (
	sqlStateNotFound        = "LV404"
	sqlStateVersionConflict = "LV409"
	sqlStateAlreadyVerified = "LV423"
	sqlStateNotParticipant  = "LV403"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// mapError translates driver errors into the backend contract. Unknown errors
// pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case sqlStateNotFound:
			return fmt.Errorf("%w: %s", backend.ErrNotFound, pqErr.Message)
		case sqlStateVersionConflict:
			return fmt.Errorf("%w: %s", backend.ErrVersionConflict, pqErr.Message)
		case sqlStateAlreadyVerified:
			return fmt.Errorf("%w: %s", match.ErrMatchAlreadyVerified, pqErr.Message)
		case sqlStateNotParticipant:
			return fmt.Errorf("%w: %s", match.ErrNotAParticipant, pqErr.Message)
		}
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%w: %s", backend.ErrUnavailable, pqErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	return err
}

// upsertSuffix renders ON CONFLICT ... DO UPDATE for every column except the
// conflict target and the skipped ones.
func upsertSuffix(conflict string, columns []string, skip ...string) string {
	skipped := make(map[string]struct{}, len(skip)+1)
	skipped[conflict] = struct{}{}
	for _, col := range skip {
		skipped[col] = struct{}{}
	}

	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if _, ok := skipped[col]; ok {
			continue
		}
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	if len(sets) == 0 {
		return "ON CONFLICT (" + conflict + ") DO NOTHING"
	}
	return "ON CONFLICT (" + conflict + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// guardedMatchUpsert leaves verified rows and rows at a newer version alone,
// so a stale full-row upload cannot undo a verification or a score edit.
func guardedMatchUpsert() string {
	return upsertSuffix("id", matchColumns, "created_at") +
		" WHERE matches.is_verified = FALSE AND matches.version <= EXCLUDED.version"
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
