package model

import (
	"encoding/json"
	"time"
)

// AlertType enumerates the alert classes the analyzers may raise.
type AlertType string

const (
	AlertTypeBudget    AlertType = "budget"
	AlertTypeLatency   AlertType = "latency"
	AlertTypeErrorRate AlertType = "error_rate"
	AlertTypeRateLimit AlertType = "rate_limit"
)

// Severity is shared by alerts and insights.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// InsightCategory enumerates insight classes.
type InsightCategory string

const (
	CategoryCost        InsightCategory = "cost"
	CategoryPerformance InsightCategory = "performance"
	CategorySecurity    InsightCategory = "security"
	CategoryMaintenance InsightCategory = "maintenance"
)

// ScanTrigger records what initiated a dependency scan.
type ScanTrigger string

const (
	TriggerManual    ScanTrigger = "manual"
	TriggerScheduled ScanTrigger = "scheduled"
	TriggerCI        ScanTrigger = "ci"
)

// Project is read-only to the analysis core. Analyzers only ever see
// projects with IsActive set.
type Project struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organizationId"`
	Name           string `json:"name"`
	IsActive       bool   `json:"isActive"`
}

// Budget covers one half-open billing window [PeriodStart, PeriodEnd).
// SpentAmountUSD is derived: the budget evaluator recomputes it from the
// request facts on every run rather than incrementing it.
type Budget struct {
	ID                 int64              `json:"id"`
	ProjectID          int64              `json:"projectId"`
	PeriodStart        time.Time          `json:"periodStart"`
	PeriodEnd          time.Time          `json:"periodEnd"`
	AllocatedAmountUSD float64            `json:"allocatedAmountUSD"`
	SpentAmountUSD     float64            `json:"spentAmountUSD"`
	AlertThresholds    map[string]float64 `json:"alertThresholds,omitempty"`
	ActionsOnExceed    json.RawMessage    `json:"actionsOnExceed,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// DefaultAlertThresholds applies when a budget carries no thresholds of
// its own.
var DefaultAlertThresholds = map[string]float64{
	string(SeverityWarning):  80,
	string(SeverityCritical): 95,
}

// APIRequestFact is one observed provider call. Append-only; the core
// never writes these.
type APIRequestFact struct {
	ID         int64           `json:"id"`
	ProjectID  int64           `json:"projectId"`
	ProviderID int64           `json:"providerId"`
	Timestamp  time.Time       `json:"timestamp"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"`
	StatusCode int             `json:"statusCode"`
	LatencyMs  float64         `json:"latencyMs"`
	CostUSD    float64         `json:"costUSD"`
	TokensUsed json.RawMessage `json:"tokensUsed,omitempty"`
}

// Alert is raised by the analyzers and resolved by an external actor.
// At most one unresolved alert may exist per (ProjectID, Type); the
// deduplicator and a partial unique index both enforce this.
type Alert struct {
	ID          string          `json:"id"`
	ProjectID   int64           `json:"projectId"`
	Type        AlertType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Message     string          `json:"message"`
	TriggeredAt time.Time       `json:"triggeredAt"`
	ResolvedAt  *time.Time      `json:"resolvedAt,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// QueryPatternFact is one observed query execution, keyed by the stable
// fingerprint of the normalized query shape. Append-only.
type QueryPatternFact struct {
	ID              int64     `json:"id"`
	ConnectionID    int64     `json:"connectionId"`
	Timestamp       time.Time `json:"timestamp"`
	Fingerprint     string    `json:"fingerprint"`
	ExecutionTimeMs float64   `json:"executionTimeMs"`
	RowsExamined    int64     `json:"rowsExamined"`
	RowsReturned    int64     `json:"rowsReturned"`
}

// SlowPattern is a selected optimization candidate: a (fingerprint,
// connection) group from the trailing window whose average execution time
// and frequency both exceed the selection thresholds.
type SlowPattern struct {
	Fingerprint  string  `json:"fingerprint"`
	ConnectionID int64   `json:"connectionId"`
	AvgTimeMs    float64 `json:"avgTimeMs"`
	Frequency    int64   `json:"frequency"`
}

// QueryOptimization is a derived recommendation for a slow pattern.
// Only the applied state and actual improvement are ever mutated, and
// only by external actors.
type QueryOptimization struct {
	ID                      string     `json:"id"`
	Fingerprint             string     `json:"fingerprint"`
	ConnectionID            int64      `json:"connectionId"`
	OptimizationType        string     `json:"optimizationType"`
	EstimatedImprovementPct float64    `json:"estimatedImprovementPct"`
	ComplexityScore         int        `json:"complexityScore"`
	RecommendationText      string     `json:"recommendationText"`
	IsApplied               bool       `json:"isApplied"`
	AppliedAt               *time.Time `json:"appliedAt,omitempty"`
	ActualImprovementPct    *float64   `json:"actualImprovementPct,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
}

// DependencyScanResult is one ecosystem scan for a project. Immutable
// once written; analyzers key off the latest scan per project.
type DependencyScanResult struct {
	ID                   string        `json:"id"`
	ProjectID            int64         `json:"projectId"`
	ScanTimestamp        time.Time     `json:"scanTimestamp"`
	Trigger              ScanTrigger   `json:"trigger"`
	Ecosystem            string        `json:"ecosystem"`
	TotalDependencies    int           `json:"totalDependencies"`
	TotalVulnerabilities int           `json:"totalVulnerabilities"`
	OverallRiskScore     float64       `json:"overallRiskScore"`
	ScanDuration         time.Duration `json:"scanDuration"`
}

// Insight is produced by the analyzers; acknowledged/resolved externally.
type Insight struct {
	ID                 string          `json:"id"`
	ProjectID          int64           `json:"projectId"`
	Category           InsightCategory `json:"category"`
	Severity           Severity        `json:"severity"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Evidence           json.RawMessage `json:"evidence,omitempty"`
	RecommendedActions json.RawMessage `json:"recommendedActions,omitempty"`
	EstimatedImpact    json.RawMessage `json:"estimatedImpact,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	AcknowledgedAt     *time.Time      `json:"acknowledgedAt,omitempty"`
	ResolvedAt         *time.Time      `json:"resolvedAt,omitempty"`
}
