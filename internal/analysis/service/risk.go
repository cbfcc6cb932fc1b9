package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DependencyRiskAnalyzer turns the latest dependency scan of a project
// into a security insight. Projects with no scans or zero
// vulnerabilities are skipped; more vulnerabilities than the critical
// count escalate severity to critical.
type DependencyRiskAnalyzer struct {
	store   Store
	clock   Clock
	deduper InsightDeduper
	ruleset *Ruleset
	retry   RetryPolicy
}

func NewDependencyRiskAnalyzer(store Store, clock Clock, deduper InsightDeduper, rs *Ruleset, retry RetryPolicy) *DependencyRiskAnalyzer {
	if clock == nil {
		clock = SystemClock()
	}
	if deduper == nil {
		deduper = NoopDeduper()
	}
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &DependencyRiskAnalyzer{store: store, clock: clock, deduper: deduper, ruleset: rs, retry: retry}
}

func (a *DependencyRiskAnalyzer) Name() string { return "dependency_risk" }

func (a *DependencyRiskAnalyzer) AnalyzeProject(ctx context.Context, projectID int64) error {
	var scan *model.DependencyScanResult
	err := a.retry.Do(ctx, "latest scan", func() error {
		var serr error
		scan, serr = a.store.LatestScan(ctx, projectID)
		return serr
	})
	if err != nil {
		return fmt.Errorf("latest scan: %w", err)
	}
	if scan == nil || scan.TotalVulnerabilities == 0 {
		return nil
	}

	seen, err := a.deduper.Seen(ctx, projectID, model.CategorySecurity)
	if err != nil {
		return fmt.Errorf("check insight dedupe: %w", err)
	}
	if seen {
		log.Debug().Int64("project_id", projectID).Msg("security insight suppressed by dedupe window")
		return nil
	}

	severity := model.SeverityWarning
	if scan.TotalVulnerabilities > a.ruleset.CriticalVulnCount {
		severity = model.SeverityCritical
	}

	evidence, _ := json.Marshal(map[string]any{
		"scan_id":             scan.ID,
		"vulnerability_count": scan.TotalVulnerabilities,
	})
	actions, _ := json.Marshal(map[string]any{"actions": a.ruleset.SecurityActions})
	impact, _ := json.Marshal(map[string]any{"risk_reduction_pct": 80})

	insight := &model.Insight{
		ID:                 uuid.NewString(),
		ProjectID:          projectID,
		Category:           model.CategorySecurity,
		Severity:           severity,
		Title:              fmt.Sprintf("%d Vulnerabilities Found", scan.TotalVulnerabilities),
		Description:        fmt.Sprintf("Your project has %d known vulnerabilities in dependencies.", scan.TotalVulnerabilities),
		Evidence:           evidence,
		RecommendedActions: actions,
		EstimatedImpact:    impact,
		CreatedAt:          a.clock.Now(),
	}
	if err := a.retry.Do(ctx, "insert security insight", func() error {
		return a.store.InsertInsight(ctx, insight)
	}); err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	if err := a.deduper.Mark(ctx, projectID, model.CategorySecurity); err != nil {
		log.Warn().Err(err).Int64("project_id", projectID).Msg("mark insight dedupe failed")
	}

	log.Info().
		Int64("project_id", projectID).
		Str("scan_id", scan.ID).
		Int("vulnerabilities", scan.TotalVulnerabilities).
		Str("severity", string(severity)).
		Msg("security insight created")
	return nil
}
