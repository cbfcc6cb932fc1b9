package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
)

// SlowQueryPatterns groups query pattern facts since the given time by
// (fingerprint, connection) and keeps groups past both selection
// thresholds. Ordering makes the result deterministic for a fixed set of
// facts.
func (s *Store) SlowQueryPatterns(ctx context.Context, since time.Time, minAvgMs float64, minCount int64) ([]model.SlowPattern, error) {
	const q = `
	SELECT fingerprint, connection_id, AVG(execution_time_ms), COUNT(*)
	FROM query_patterns
	WHERE timestamp >= $1
	GROUP BY fingerprint, connection_id
	HAVING AVG(execution_time_ms) > $2 AND COUNT(*) > $3
	ORDER BY fingerprint, connection_id`
	rows, err := s.db.QueryContext(ctx, q, since, minAvgMs, minCount)
	if err != nil {
		return nil, fmt.Errorf("query slow patterns: %w", err)
	}
	defer rows.Close()

	var out []model.SlowPattern
	for rows.Next() {
		var p model.SlowPattern
		if err := rows.Scan(&p.Fingerprint, &p.ConnectionID, &p.AvgTimeMs, &p.Frequency); err != nil {
			return nil, fmt.Errorf("scan slow pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UnappliedOptimizationExists(ctx context.Context, fingerprint string, connectionID int64) (bool, error) {
	const q = `
	SELECT EXISTS(
		SELECT 1 FROM query_optimizations
		WHERE fingerprint = $1 AND connection_id = $2 AND NOT is_applied
	)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, fingerprint, connectionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check unapplied optimization: %w", err)
	}
	return exists, nil
}

func (s *Store) InsertOptimization(ctx context.Context, o *model.QueryOptimization) error {
	const q = `
	INSERT INTO query_optimizations
		(id, fingerprint, connection_id, optimization_type, estimated_improvement_pct,
		 complexity_score, recommendation_text, is_applied, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, q, o.ID, o.Fingerprint, o.ConnectionID, o.OptimizationType,
		o.EstimatedImprovementPct, o.ComplexityScore, o.RecommendationText, o.IsApplied, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert optimization: %w", err)
	}
	return nil
}

func (s *Store) ListOptimizations(ctx context.Context, connectionID int64) ([]*model.QueryOptimization, error) {
	const q = `
	SELECT id, fingerprint, connection_id, optimization_type, estimated_improvement_pct,
	       complexity_score, recommendation_text, is_applied, applied_at,
	       actual_improvement_pct, created_at
	FROM query_optimizations
	WHERE connection_id = $1
	ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list optimizations: %w", err)
	}
	defer rows.Close()

	var out []*model.QueryOptimization
	for rows.Next() {
		var o model.QueryOptimization
		var appliedAt sql.NullTime
		var actual sql.NullFloat64
		if err := rows.Scan(&o.ID, &o.Fingerprint, &o.ConnectionID, &o.OptimizationType,
			&o.EstimatedImprovementPct, &o.ComplexityScore, &o.RecommendationText,
			&o.IsApplied, &appliedAt, &actual, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan optimization: %w", err)
		}
		if appliedAt.Valid {
			t := appliedAt.Time
			o.AppliedAt = &t
		}
		if actual.Valid {
			v := actual.Float64
			o.ActualImprovementPct = &v
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}
