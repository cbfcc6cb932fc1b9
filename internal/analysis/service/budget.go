package service

import (
	"context"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/rs/zerolog/log"
)

// BudgetEvaluator recomputes spend for every budget whose window contains
// "now" and raises budget alerts through the deduplicator when a
// threshold is crossed. Budgets are evaluated independently: one failing
// budget is logged and skipped without aborting the batch.
type BudgetEvaluator struct {
	store   Store
	clock   Clock
	alerts  *AlertDeduplicator
	ruleset *Ruleset
	retry   RetryPolicy
}

func NewBudgetEvaluator(store Store, clock Clock, alerts *AlertDeduplicator, rs *Ruleset, retry RetryPolicy) *BudgetEvaluator {
	if clock == nil {
		clock = SystemClock()
	}
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &BudgetEvaluator{store: store, clock: clock, alerts: alerts, ruleset: rs, retry: retry}
}

// Run evaluates all currently active budgets once.
func (e *BudgetEvaluator) Run(ctx context.Context) error {
	now := e.clock.Now()

	var budgets []*model.Budget
	err := e.retry.Do(ctx, "list active budgets", func() error {
		var lerr error
		budgets, lerr = e.store.ActiveBudgets(ctx, now)
		return lerr
	})
	if err != nil {
		return fmt.Errorf("list active budgets: %w", err)
	}

	evaluated := 0
	for _, b := range budgets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := e.evaluateOne(ctx, b); err != nil {
			log.Error().Err(err).Int64("budget_id", b.ID).Int64("project_id", b.ProjectID).Msg("budget evaluation failed, skipping")
			continue
		}
		evaluated++
	}
	log.Info().Int("total", len(budgets)).Int("evaluated", evaluated).Msg("budget check completed")
	return nil
}

func (e *BudgetEvaluator) evaluateOne(ctx context.Context, b *model.Budget) error {
	var spent float64
	err := e.retry.Do(ctx, "sum request cost", func() error {
		var serr error
		spent, serr = e.store.SumRequestCost(ctx, b.ProjectID, b.PeriodStart, b.PeriodEnd)
		return serr
	})
	if err != nil {
		return fmt.Errorf("sum request cost: %w", err)
	}

	if err := e.retry.Do(ctx, "update budget spent", func() error {
		return e.store.UpdateBudgetSpent(ctx, b.ID, spent)
	}); err != nil {
		return fmt.Errorf("update spent amount: %w", err)
	}
	b.SpentAmountUSD = spent

	// zero-allocation budgets never alert
	utilization := 0.0
	if b.AllocatedAmountUSD > 0 {
		utilization = spent / b.AllocatedAmountUSD * 100
	}

	severity, threshold, err := e.crossedThreshold(b, utilization)
	if err != nil {
		return err
	}
	if severity == "" {
		return nil
	}

	var message string
	switch severity {
	case model.SeverityCritical:
		message = fmt.Sprintf("Budget critically exceeded: %.1f%% used", utilization)
	default:
		message = fmt.Sprintf("Budget warning: %.1f%% used", utilization)
	}

	log.Debug().
		Int64("budget_id", b.ID).
		Float64("utilization_pct", utilization).
		Float64("threshold_pct", threshold).
		Str("severity", string(severity)).
		Msg("budget threshold crossed")

	_, err = e.alerts.CreateIfAbsent(ctx, b.ProjectID, model.AlertTypeBudget, severity, message)
	return err
}

// crossedThreshold returns the highest crossed severity, critical before
// warning, so a budget past both thresholds yields exactly one critical
// alert. Malformed thresholds are a data error for this budget only.
func (e *BudgetEvaluator) crossedThreshold(b *model.Budget, utilization float64) (model.Severity, float64, error) {
	thresholds := b.AlertThresholds
	if len(thresholds) == 0 {
		thresholds = e.ruleset.BudgetThresholds
	}
	for _, severity := range []model.Severity{model.SeverityCritical, model.SeverityWarning} {
		pct, ok := thresholds[string(severity)]
		if !ok {
			continue
		}
		if pct <= 0 {
			return "", 0, fmt.Errorf("malformed %s threshold %.2f on budget %d", severity, pct, b.ID)
		}
		if utilization >= pct {
			return severity, pct, nil
		}
	}
	return "", 0, nil
}
