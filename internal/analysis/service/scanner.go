package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StubScanner records an empty scan result. It keeps the trigger surface
// and the dependency risk pipeline exercisable until a real
// vulnerability-database scanner is plugged in behind the Scanner
// interface.
type StubScanner struct {
	store Store
	clock Clock
}

func NewStubScanner(store Store, clock Clock) *StubScanner {
	if clock == nil {
		clock = SystemClock()
	}
	return &StubScanner{store: store, clock: clock}
}

func (s *StubScanner) Scan(ctx context.Context, projectID int64, ecosystem string) (*model.DependencyScanResult, error) {
	start := time.Now()
	result := &model.DependencyScanResult{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		ScanTimestamp: s.clock.Now(),
		Trigger:       model.TriggerManual,
		Ecosystem:     ecosystem,
		ScanDuration:  time.Since(start),
	}
	if err := s.store.InsertScan(ctx, result); err != nil {
		return nil, fmt.Errorf("insert scan result: %w", err)
	}
	log.Info().Int64("project_id", projectID).Str("ecosystem", ecosystem).Str("scan_id", result.ID).Msg("dependency scan recorded")
	return result, nil
}
