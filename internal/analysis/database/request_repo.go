package database

import (
	"context"
	"fmt"
	"time"
)

// SumRequestCost sums request costs for a project over the half-open
// window [from, to). Facts are append-only; this is the only read the
// core performs on them.
func (s *Store) SumRequestCost(ctx context.Context, projectID int64, from, to time.Time) (float64, error) {
	const q = `
	SELECT COALESCE(SUM(cost_usd), 0)
	FROM api_requests
	WHERE project_id = $1 AND timestamp >= $2 AND timestamp < $3`
	var total float64
	if err := s.db.QueryRowContext(ctx, q, projectID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum request cost: %w", err)
	}
	return total, nil
}
