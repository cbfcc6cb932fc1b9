package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errInjected
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustionReturnsLastError(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		return errInjected
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_ZeroAttemptsStillRunsOnce(t *testing.T) {
	p := RetryPolicy{}
	calls := 0
	if err := p.Do(context.Background(), "op", func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Attempts: 5, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(ctx, "op", func() error {
		calls++
		cancel()
		return errInjected
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after cancellation, got %d calls", calls)
	}
}

func TestBudgetEvaluator_ExhaustedUnitIsSkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	clock := newFakeClock(now)
	store.budgets = append(store.budgets, testBudget(1, 7, 100, now), testBudget(2, 8, 100, now))
	addRequests(store, 7, now.Add(-time.Hour), 96)
	addRequests(store, 8, now.Add(-time.Hour), 96)

	// first budget's cost query fails through all attempts; the second
	// budget must still be evaluated
	store.failNext("SumRequestCost", 2)
	eval := NewBudgetEvaluator(store, clock, NewAlertDeduplicator(store, clock),
		nil, RetryPolicy{Attempts: 2, Backoff: time.Millisecond})
	if err := eval.Run(ctx); err != nil {
		t.Fatalf("run must not fail the batch: %v", err)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert from the surviving budget, got %d", len(store.alerts))
	}
	if store.alerts[0].ProjectID != 8 {
		t.Fatalf("expected project 8 to alert, got %d", store.alerts[0].ProjectID)
	}
}

func TestBudgetEvaluator_RetriesTransientStoreFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	clock := newFakeClock(now)
	store.budgets = append(store.budgets, testBudget(1, 7, 100, now))
	addRequests(store, 7, now.Add(-time.Hour), 96)

	store.failNext("ActiveBudgets", 2)
	eval := NewBudgetEvaluator(store, clock, NewAlertDeduplicator(store, clock),
		nil, RetryPolicy{Attempts: 3, Backoff: time.Millisecond})
	if err := eval.Run(ctx); err != nil {
		t.Fatalf("run should recover from two transient failures: %v", err)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("expected alert after recovery, got %d", len(store.alerts))
	}
}
