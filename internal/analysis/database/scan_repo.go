package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/jackc/pgx/v5/pgtype"
)

// LatestScan returns the most recent scan for a project by scan
// timestamp, ties broken by insertion order (seq). Nil when the project
// has never been scanned.
func (s *Store) LatestScan(ctx context.Context, projectID int64) (*model.DependencyScanResult, error) {
	const q = `
	SELECT id, project_id, scan_timestamp, scan_trigger, ecosystem,
	       total_dependencies, total_vulnerabilities, overall_risk_score, scan_duration
	FROM dependency_scans
	WHERE project_id = $1
	ORDER BY scan_timestamp DESC, seq DESC
	LIMIT 1`
	var r model.DependencyScanResult
	var trigger string
	var duration pgtype.Interval
	err := s.db.QueryRowContext(ctx, q, projectID).Scan(&r.ID, &r.ProjectID, &r.ScanTimestamp,
		&trigger, &r.Ecosystem, &r.TotalDependencies, &r.TotalVulnerabilities,
		&r.OverallRiskScore, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest scan: %w", err)
	}
	r.Trigger = model.ScanTrigger(trigger)
	r.ScanDuration = pgIntervalToDuration(duration)
	return &r, nil
}

func (s *Store) InsertScan(ctx context.Context, r *model.DependencyScanResult) error {
	const q = `
	INSERT INTO dependency_scans
		(id, project_id, scan_timestamp, scan_trigger, ecosystem,
		 total_dependencies, total_vulnerabilities, overall_risk_score, scan_duration)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, q, r.ID, r.ProjectID, r.ScanTimestamp, string(r.Trigger),
		r.Ecosystem, r.TotalDependencies, r.TotalVulnerabilities, r.OverallRiskScore,
		durationToPgInterval(r.ScanDuration))
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}
