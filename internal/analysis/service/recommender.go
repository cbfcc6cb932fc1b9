package service

import (
	"context"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HeuristicRecommender turns slow patterns into query optimization
// records with a rough improvement estimate. A pattern that already has
// an unapplied recommendation is skipped, so repeated analysis runs do
// not pile up duplicates. ML-driven recommendation generation plugs in
// behind the same Recommender interface.
type HeuristicRecommender struct {
	store Store
	clock Clock
}

func NewHeuristicRecommender(store Store, clock Clock) *HeuristicRecommender {
	if clock == nil {
		clock = SystemClock()
	}
	return &HeuristicRecommender{store: store, clock: clock}
}

func (r *HeuristicRecommender) Recommend(ctx context.Context, patterns []model.SlowPattern) error {
	created := 0
	for _, p := range patterns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		exists, err := r.store.UnappliedOptimizationExists(ctx, p.Fingerprint, p.ConnectionID)
		if err != nil {
			log.Error().Err(err).Str("fingerprint", p.Fingerprint).Int64("connection_id", p.ConnectionID).Msg("check existing optimization failed, skipping pattern")
			continue
		}
		if exists {
			continue
		}

		opt := &model.QueryOptimization{
			ID:                      uuid.NewString(),
			Fingerprint:             p.Fingerprint,
			ConnectionID:            p.ConnectionID,
			OptimizationType:        "index",
			EstimatedImprovementPct: estimateImprovement(p.AvgTimeMs),
			ComplexityScore:         5,
			RecommendationText: fmt.Sprintf(
				"Query pattern %s on connection %d averaged %.0fms over %d executions in the last 24 hours; consider adding a covering index or caching the result set.",
				p.Fingerprint, p.ConnectionID, p.AvgTimeMs, p.Frequency),
			CreatedAt: r.clock.Now(),
		}
		if err := r.store.InsertOptimization(ctx, opt); err != nil {
			log.Error().Err(err).Str("fingerprint", p.Fingerprint).Msg("insert optimization failed, skipping pattern")
			continue
		}
		created++
	}
	log.Info().Int("created", created).Int("candidates", len(patterns)).Msg("optimization recommendations generated")
	return nil
}

// estimateImprovement scales with how far the average exceeds the 100ms
// baseline, capped at 75%.
func estimateImprovement(avgMs float64) float64 {
	if avgMs <= 100 {
		return 0
	}
	pct := (avgMs - 100) / avgMs * 100
	if pct > 75 {
		pct = 75
	}
	return pct
}
