package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/rs/zerolog/log"
)

// ActiveBudgets returns budgets whose half-open window [period_start,
// period_end) contains now.
func (s *Store) ActiveBudgets(ctx context.Context, now time.Time) ([]*model.Budget, error) {
	const q = `
	SELECT id, project_id, period_start, period_end, allocated_amount_usd,
	       spent_amount_usd, alert_thresholds, actions_on_exceed, created_at, updated_at
	FROM api_budgets
	WHERE period_start <= $1 AND period_end > $1
	ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("query active budgets: %w", err)
	}
	defer rows.Close()

	var out []*model.Budget
	for rows.Next() {
		var b model.Budget
		var thresholds, actions []byte
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.PeriodStart, &b.PeriodEnd,
			&b.AllocatedAmountUSD, &b.SpentAmountUSD, &thresholds, &actions,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.AlertThresholds = parseThresholds(b.ID, thresholds)
		if len(actions) > 0 {
			b.ActionsOnExceed = json.RawMessage(actions)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// parseThresholds decodes a budget's alert_thresholds JSONB. Thresholds
// that do not decode into severity->percentage are a data error scoped
// to that budget: logged, and the budget falls back to the default
// thresholds instead of failing the whole batch read.
func parseThresholds(budgetID int64, raw []byte) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Error().Err(err).Int64("budget_id", budgetID).Msg("malformed alert thresholds, falling back to defaults")
		return nil
	}
	return out
}

// UpdateBudgetSpent persists the recomputed spent amount.
func (s *Store) UpdateBudgetSpent(ctx context.Context, budgetID int64, spent float64) error {
	const q = `UPDATE api_budgets SET spent_amount_usd = $2, updated_at = now() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, budgetID, spent)
	if err != nil {
		return fmt.Errorf("update budget spent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %d: %w", budgetID, model.ErrNotFound)
	}
	return nil
}
