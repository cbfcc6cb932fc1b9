package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/lib/pq"
)

// UnresolvedAlert returns the unresolved alert for (project, type), or
// nil when none exists. The partial unique index guarantees at most one
// row can match.
func (s *Store) UnresolvedAlert(ctx context.Context, projectID int64, alertType model.AlertType) (*model.Alert, error) {
	const q = `
	SELECT id, project_id, alert_type, severity, message, triggered_at, resolved_at, metadata
	FROM api_alerts
	WHERE project_id = $1 AND alert_type = $2 AND resolved_at IS NULL`
	a, err := scanAlert(s.db.QueryRowContext(ctx, q, projectID, string(alertType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// InsertAlert inserts an unresolved alert. A violation of the partial
// unique index on (project_id, alert_type) WHERE resolved_at IS NULL is
// mapped to model.ErrDuplicateAlert so concurrent runs stay idempotent.
func (s *Store) InsertAlert(ctx context.Context, a *model.Alert) error {
	const q = `
	INSERT INTO api_alerts (id, project_id, alert_type, severity, message, triggered_at, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.ProjectID, string(a.Type), string(a.Severity),
		a.Message, a.TriggeredAt, nullableJSON(a.Metadata))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.ErrDuplicateAlert
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) ResolveAlert(ctx context.Context, alertID string, at time.Time) error {
	const q = `UPDATE api_alerts SET resolved_at = $2 WHERE id = $1 AND resolved_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, alertID, at)
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s: %w", alertID, model.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, projectID int64, unresolvedOnly bool) ([]*model.Alert, error) {
	q := `
	SELECT id, project_id, alert_type, severity, message, triggered_at, resolved_at, metadata
	FROM api_alerts
	WHERE project_id = $1`
	if unresolvedOnly {
		q += ` AND resolved_at IS NULL`
	}
	q += ` ORDER BY triggered_at DESC`

	rows, err := s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(r rowScanner) (*model.Alert, error) {
	var a model.Alert
	var alertType, severity string
	var resolvedAt sql.NullTime
	var metadata []byte
	if err := r.Scan(&a.ID, &a.ProjectID, &alertType, &severity, &a.Message,
		&a.TriggeredAt, &resolvedAt, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	a.Type = model.AlertType(alertType)
	a.Severity = model.Severity(severity)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	if len(metadata) > 0 {
		a.Metadata = metadata
	}
	return &a, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
