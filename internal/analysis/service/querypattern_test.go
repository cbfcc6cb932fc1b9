package service

import (
	"context"
	"testing"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
)

func addPatternFacts(store *memStore, fingerprint string, connectionID int64, at time.Time, execMs float64, count int) {
	for i := 0; i < count; i++ {
		store.patterns = append(store.patterns, &model.QueryPatternFact{
			ConnectionID:    connectionID,
			Timestamp:       at,
			Fingerprint:     fingerprint,
			ExecutionTimeMs: execMs,
		})
	}
}

func TestQueryPatternAnalyzer_SelectionPredicate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	recent := now.Add(-time.Hour)

	// fast but frequent: avg 50ms over 20 runs, rejected on time
	addPatternFacts(store, "aaa", 1, recent, 50, 20)
	// slow but rare: avg 150ms over 5 runs, rejected on frequency
	addPatternFacts(store, "bbb", 1, recent, 150, 5)
	// slow and frequent: avg 200ms over 15 runs, selected
	addPatternFacts(store, "ccc", 1, recent, 200, 15)
	// slow and frequent but stale: outside the 24h window
	addPatternFacts(store, "ddd", 1, now.Add(-25*time.Hour), 300, 30)

	a := NewQueryPatternAnalyzer(store, newFakeClock(now), nil, nil, testRetry)
	patterns, err := a.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %#v", patterns)
	}
	p := patterns[0]
	if p.Fingerprint != "ccc" || p.AvgTimeMs != 200 || p.Frequency != 15 {
		t.Fatalf("unexpected candidate: %#v", p)
	}
}

func TestQueryPatternAnalyzer_BoundaryValuesExcluded(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	recent := now.Add(-time.Hour)

	// both thresholds are strict: avg exactly 100ms and exactly 10 runs
	// must not be selected
	addPatternFacts(store, "edge", 1, recent, 100, 10)

	a := NewQueryPatternAnalyzer(store, newFakeClock(now), nil, nil, testRetry)
	patterns, err := a.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("boundary values must be excluded, got %#v", patterns)
	}
}

func TestQueryPatternAnalyzer_DeterministicOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	recent := now.Add(-time.Hour)

	addPatternFacts(store, "zzz", 1, recent, 200, 15)
	addPatternFacts(store, "aaa", 2, recent, 200, 15)
	addPatternFacts(store, "aaa", 1, recent, 200, 15)

	a := NewQueryPatternAnalyzer(store, newFakeClock(now), nil, nil, testRetry)
	patterns, err := a.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(patterns) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(patterns))
	}
	want := []struct {
		fp   string
		conn int64
	}{{"aaa", 1}, {"aaa", 2}, {"zzz", 1}}
	for i, w := range want {
		if patterns[i].Fingerprint != w.fp || patterns[i].ConnectionID != w.conn {
			t.Fatalf("position %d: got (%s,%d), want (%s,%d)",
				i, patterns[i].Fingerprint, patterns[i].ConnectionID, w.fp, w.conn)
		}
	}
}

func TestHeuristicRecommender_SkipsExistingUnapplied(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()

	candidates := []model.SlowPattern{{Fingerprint: "ccc", ConnectionID: 1, AvgTimeMs: 200, Frequency: 15}}
	r := NewHeuristicRecommender(store, newFakeClock(now))

	if err := r.Recommend(ctx, candidates); err != nil {
		t.Fatalf("first recommend: %v", err)
	}
	if err := r.Recommend(ctx, candidates); err != nil {
		t.Fatalf("second recommend: %v", err)
	}
	if len(store.optimizations) != 1 {
		t.Fatalf("unapplied recommendation must suppress repeats, got %d", len(store.optimizations))
	}

	opt := store.optimizations[0]
	if opt.OptimizationType != "index" || opt.ComplexityScore != 5 {
		t.Fatalf("unexpected optimization shape: %#v", opt)
	}
	// (200-100)/200*100 = 50
	if opt.EstimatedImprovementPct != 50 {
		t.Fatalf("expected 50%% estimate, got %v", opt.EstimatedImprovementPct)
	}

	// once applied, a fresh recommendation may be created again
	store.optimizations[0].IsApplied = true
	if err := r.Recommend(ctx, candidates); err != nil {
		t.Fatalf("third recommend: %v", err)
	}
	if len(store.optimizations) != 2 {
		t.Fatalf("applied recommendation must not suppress, got %d", len(store.optimizations))
	}
}

func TestEstimateImprovementCap(t *testing.T) {
	if got := estimateImprovement(90); got != 0 {
		t.Fatalf("below baseline must estimate 0, got %v", got)
	}
	if got := estimateImprovement(10000); got != 75 {
		t.Fatalf("estimate must cap at 75, got %v", got)
	}
}

func TestQueryPatternAnalyzer_RecommenderFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	addPatternFacts(store, "ccc", 1, now.Add(-time.Hour), 200, 15)

	store.failNext("UnappliedOptimizationExists", 1)
	a := NewQueryPatternAnalyzer(store, newFakeClock(now), NewHeuristicRecommender(store, newFakeClock(now)), nil, testRetry)
	patterns, err := a.Analyze(ctx)
	if err != nil {
		t.Fatalf("analysis must survive recommender failure: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected candidate despite recommender failure, got %d", len(patterns))
	}
}
