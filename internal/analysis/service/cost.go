package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const costLookbackDays = 30

// CostInsightAnalyzer flags projects whose trailing 30-day API spend
// exceeds the configured threshold. Whether repeat runs re-create the
// insight while the condition holds is governed by the dedupe window; a
// zero window keeps the original behavior of a fresh insight per run.
type CostInsightAnalyzer struct {
	store   Store
	clock   Clock
	deduper InsightDeduper
	ruleset *Ruleset
	retry   RetryPolicy
}

func NewCostInsightAnalyzer(store Store, clock Clock, deduper InsightDeduper, rs *Ruleset, retry RetryPolicy) *CostInsightAnalyzer {
	if clock == nil {
		clock = SystemClock()
	}
	if deduper == nil {
		deduper = NoopDeduper()
	}
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &CostInsightAnalyzer{store: store, clock: clock, deduper: deduper, ruleset: rs, retry: retry}
}

func (a *CostInsightAnalyzer) Name() string { return "api_cost" }

func (a *CostInsightAnalyzer) AnalyzeProject(ctx context.Context, projectID int64) error {
	now := a.clock.Now()
	from := now.Add(-costLookbackDays * 24 * time.Hour)

	var total float64
	err := a.retry.Do(ctx, "sum 30d request cost", func() error {
		var serr error
		total, serr = a.store.SumRequestCost(ctx, projectID, from, now)
		return serr
	})
	if err != nil {
		return fmt.Errorf("sum request cost: %w", err)
	}
	if total <= a.ruleset.CostThresholdUSD {
		return nil
	}

	seen, err := a.deduper.Seen(ctx, projectID, model.CategoryCost)
	if err != nil {
		return fmt.Errorf("check insight dedupe: %w", err)
	}
	if seen {
		log.Debug().Int64("project_id", projectID).Msg("cost insight suppressed by dedupe window")
		return nil
	}

	evidence, _ := json.Marshal(map[string]any{
		"total_cost":  total,
		"period_days": costLookbackDays,
	})
	actions, _ := json.Marshal(map[string]any{"actions": a.ruleset.CostActions})
	impact, _ := json.Marshal(map[string]any{"potential_savings_pct": 20})

	insight := &model.Insight{
		ID:                 uuid.NewString(),
		ProjectID:          projectID,
		Category:           model.CategoryCost,
		Severity:           model.SeverityWarning,
		Title:              "High API Costs Detected",
		Description:        fmt.Sprintf("Your project has spent $%.2f on API calls in the last %d days.", total, costLookbackDays),
		Evidence:           evidence,
		RecommendedActions: actions,
		EstimatedImpact:    impact,
		CreatedAt:          now,
	}
	if err := a.retry.Do(ctx, "insert cost insight", func() error {
		return a.store.InsertInsight(ctx, insight)
	}); err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	if err := a.deduper.Mark(ctx, projectID, model.CategoryCost); err != nil {
		log.Warn().Err(err).Int64("project_id", projectID).Msg("mark insight dedupe failed")
	}

	log.Info().Int64("project_id", projectID).Float64("total_cost_usd", total).Msg("cost insight created")
	return nil
}
