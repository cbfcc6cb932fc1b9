package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
)

func (s *Store) InsertInsight(ctx context.Context, i *model.Insight) error {
	const q = `
	INSERT INTO insights
		(id, project_id, category, severity, title, description,
		 evidence, recommended_actions, estimated_impact, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, q, i.ID, i.ProjectID, string(i.Category), string(i.Severity),
		i.Title, i.Description, nullableJSON(i.Evidence), nullableJSON(i.RecommendedActions),
		nullableJSON(i.EstimatedImpact), i.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

func (s *Store) ListInsights(ctx context.Context, projectID int64, category model.InsightCategory) ([]*model.Insight, error) {
	q := `
	SELECT id, project_id, category, severity, title, description,
	       evidence, recommended_actions, estimated_impact,
	       created_at, acknowledged_at, resolved_at
	FROM insights
	WHERE project_id = $1`
	args := []any{projectID}
	if category != "" {
		q += ` AND category = $2`
		args = append(args, string(category))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []*model.Insight
	for rows.Next() {
		var i model.Insight
		var cat, sev string
		var evidence, actions, impact []byte
		var acked, resolved sql.NullTime
		if err := rows.Scan(&i.ID, &i.ProjectID, &cat, &sev, &i.Title, &i.Description,
			&evidence, &actions, &impact, &i.CreatedAt, &acked, &resolved); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		i.Category = model.InsightCategory(cat)
		i.Severity = model.Severity(sev)
		i.Evidence = evidence
		i.RecommendedActions = actions
		i.EstimatedImpact = impact
		if acked.Valid {
			t := acked.Time
			i.AcknowledgedAt = &t
		}
		if resolved.Valid {
			t := resolved.Time
			i.ResolvedAt = &t
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func (s *Store) AcknowledgeInsight(ctx context.Context, insightID string, at time.Time) error {
	const q = `UPDATE insights SET acknowledged_at = $2 WHERE id = $1 AND acknowledged_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, insightID, at)
	if err != nil {
		return fmt.Errorf("acknowledge insight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("insight %s: %w", insightID, model.ErrNotFound)
	}
	return nil
}

func (s *Store) ResolveInsight(ctx context.Context, insightID string, at time.Time) error {
	const q = `UPDATE insights SET resolved_at = $2 WHERE id = $1 AND resolved_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, insightID, at)
	if err != nil {
		return fmt.Errorf("resolve insight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("insight %s: %w", insightID, model.ErrNotFound)
	}
	return nil
}
