package service

import (
	"context"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
)

// Store is the persistence boundary of the analysis core. Facts
// (requests, query patterns, scans) are read-only here; derived entities
// (budgets' spent amount, alerts, optimizations, insights) are written.
// Implementations must make InsertAlert atomic with respect to the
// at-most-one-unresolved invariant (partial unique index or equivalent).
type Store interface {
	ActiveProjects(ctx context.Context) ([]*model.Project, error)

	// ActiveBudgets returns budgets whose window [PeriodStart, PeriodEnd)
	// contains now.
	ActiveBudgets(ctx context.Context, now time.Time) ([]*model.Budget, error)
	UpdateBudgetSpent(ctx context.Context, budgetID int64, spent float64) error

	// SumRequestCost sums APIRequestFact.CostUSD for a project over the
	// half-open window [from, to).
	SumRequestCost(ctx context.Context, projectID int64, from, to time.Time) (float64, error)

	// UnresolvedAlert returns the unresolved alert for (project, type),
	// or nil when none exists.
	UnresolvedAlert(ctx context.Context, projectID int64, alertType model.AlertType) (*model.Alert, error)
	// InsertAlert returns model.ErrDuplicateAlert when an unresolved
	// alert for (project, type) already exists.
	InsertAlert(ctx context.Context, a *model.Alert) error
	ResolveAlert(ctx context.Context, alertID string, at time.Time) error
	ListAlerts(ctx context.Context, projectID int64, unresolvedOnly bool) ([]*model.Alert, error)

	// SlowQueryPatterns groups query pattern facts observed since the
	// given time by (fingerprint, connection) and returns groups whose
	// average execution time exceeds minAvgMs and whose count exceeds
	// minCount, ordered by (fingerprint, connection).
	SlowQueryPatterns(ctx context.Context, since time.Time, minAvgMs float64, minCount int64) ([]model.SlowPattern, error)

	UnappliedOptimizationExists(ctx context.Context, fingerprint string, connectionID int64) (bool, error)
	InsertOptimization(ctx context.Context, o *model.QueryOptimization) error
	ListOptimizations(ctx context.Context, connectionID int64) ([]*model.QueryOptimization, error)

	// LatestScan returns the most recent scan for a project by
	// ScanTimestamp, ties broken by insertion order; nil when the project
	// has never been scanned.
	LatestScan(ctx context.Context, projectID int64) (*model.DependencyScanResult, error)
	InsertScan(ctx context.Context, s *model.DependencyScanResult) error

	InsertInsight(ctx context.Context, i *model.Insight) error
	ListInsights(ctx context.Context, projectID int64, category model.InsightCategory) ([]*model.Insight, error)
	AcknowledgeInsight(ctx context.Context, insightID string, at time.Time) error
	ResolveInsight(ctx context.Context, insightID string, at time.Time) error
}

// Clock abstracts "now" so analyzer runs are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// Scanner performs one dependency scan for a project/ecosystem pair and
// returns the result to append. The core only ever reads results; actual
// vulnerability lookups are a pluggable strategy behind this interface.
type Scanner interface {
	Scan(ctx context.Context, projectID int64, ecosystem string) (*model.DependencyScanResult, error)
}

// Recommender consumes the slow patterns selected by the query pattern
// analyzer. Recommendation text generation is a pluggable strategy; the
// default heuristic implementation lives in recommender.go.
type Recommender interface {
	Recommend(ctx context.Context, patterns []model.SlowPattern) error
}
