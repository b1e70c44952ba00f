package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	"github.com/evermore-health/vitalsync/internal/store"
	"github.com/google/uuid"
)

// latestTimestamp returns the newest non-null value of the given timestamp
// column for the user, or nil when the user has no rows yet. The sync engine
// uses this to resolve its incremental resume point per record family.
// table and column are compile-time constants in the callers, never user input.
func latestTimestamp(
	ctx context.Context,
	db store.DBTX,
	table, column string,
	userID uuid.UUID,
) (*time.Time, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1 AND %s IS NOT NULL ORDER BY %s DESC LIMIT 1`,
		column, table, column, column,
	)

	var ts time.Time
	err := db.QueryRowContext(ctx, query, userID).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest %s timestamp: %w", table, MapError(err))
	}

	return &ts, nil
}
