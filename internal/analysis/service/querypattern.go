package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/rs/zerolog/log"
)

const queryPatternWindow = 24 * time.Hour

// QueryPatternAnalyzer selects slow query patterns from the trailing
// 24-hour window and hands them to the recommendation strategy. The
// selection predicate is: group by (fingerprint, connection), keep groups
// whose average execution time exceeds the slow-query threshold AND whose
// occurrence count exceeds the minimum frequency.
type QueryPatternAnalyzer struct {
	store       Store
	clock       Clock
	recommender Recommender
	ruleset     *Ruleset
	retry       RetryPolicy
}

func NewQueryPatternAnalyzer(store Store, clock Clock, rec Recommender, rs *Ruleset, retry RetryPolicy) *QueryPatternAnalyzer {
	if clock == nil {
		clock = SystemClock()
	}
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &QueryPatternAnalyzer{store: store, clock: clock, recommender: rec, ruleset: rs, retry: retry}
}

// Run performs one analysis pass and returns the selected candidates.
func (a *QueryPatternAnalyzer) Run(ctx context.Context) error {
	_, err := a.Analyze(ctx)
	return err
}

// Analyze selects the slow pattern candidates. The result is
// deterministic for a fixed input set: ordered by (fingerprint,
// connection) regardless of store ordering.
func (a *QueryPatternAnalyzer) Analyze(ctx context.Context) ([]model.SlowPattern, error) {
	since := a.clock.Now().Add(-queryPatternWindow)

	var patterns []model.SlowPattern
	err := a.retry.Do(ctx, "query slow patterns", func() error {
		var qerr error
		patterns, qerr = a.store.SlowQueryPatterns(ctx, since, a.ruleset.SlowQueryMs, a.ruleset.SlowQueryMinCount)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("query slow patterns: %w", err)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Fingerprint != patterns[j].Fingerprint {
			return patterns[i].Fingerprint < patterns[j].Fingerprint
		}
		return patterns[i].ConnectionID < patterns[j].ConnectionID
	})

	log.Info().Int("pattern_count", len(patterns)).Time("since", since).Msg("slow query patterns selected")

	if a.recommender != nil && len(patterns) > 0 {
		if err := a.recommender.Recommend(ctx, patterns); err != nil {
			log.Error().Err(err).Msg("recommendation generation failed")
		}
	}
	return patterns, nil
}
