package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AlertDeduplicator is the only path by which analyzers create alerts.
// It guarantees at most one unresolved alert per (project, type): while
// an unresolved alert exists, CreateIfAbsent is a no-op even if the new
// severity or message differ. Existing alerts are never upgraded in
// place.
type AlertDeduplicator struct {
	store Store
	clock Clock
}

func NewAlertDeduplicator(store Store, clock Clock) *AlertDeduplicator {
	if clock == nil {
		clock = SystemClock()
	}
	return &AlertDeduplicator{store: store, clock: clock}
}

// CreateIfAbsent inserts a new unresolved alert unless one already exists
// for (projectID, alertType). Returns whether an alert was created. A
// duplicate detected at insert time (concurrent run) is swallowed as a
// benign no-op.
func (d *AlertDeduplicator) CreateIfAbsent(ctx context.Context, projectID int64, alertType model.AlertType, severity model.Severity, message string) (bool, error) {
	existing, err := d.store.UnresolvedAlert(ctx, projectID, alertType)
	if err != nil {
		return false, fmt.Errorf("query unresolved alert: %w", err)
	}
	if existing != nil {
		log.Debug().
			Int64("project_id", projectID).
			Str("alert_type", string(alertType)).
			Str("existing_id", existing.ID).
			Msg("unresolved alert present, skipping create")
		return false, nil
	}

	alert := &model.Alert{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Type:        alertType,
		Severity:    severity,
		Message:     message,
		TriggeredAt: d.clock.Now(),
	}
	if err := d.store.InsertAlert(ctx, alert); err != nil {
		if errors.Is(err, model.ErrDuplicateAlert) {
			// lost the race against a concurrent run; the invariant holds
			return false, nil
		}
		return false, fmt.Errorf("insert alert: %w", err)
	}

	log.Info().
		Int64("project_id", projectID).
		Str("alert_type", string(alertType)).
		Str("severity", string(severity)).
		Str("alert_id", alert.ID).
		Msg("alert created")
	return true, nil
}
