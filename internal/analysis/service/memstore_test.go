package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/devguard/devguard/internal/analysis/model"
)

var errInjected = errors.New("injected store failure")

// memStore is the in-memory Store used across the service tests. The
// failures map injects N consecutive errors for a named operation so the
// retry paths can be exercised.
type memStore struct {
	mu            sync.Mutex
	projects      []*model.Project
	budgets       []*model.Budget
	requests      []*model.APIRequestFact
	alerts        []*model.Alert
	patterns      []*model.QueryPatternFact
	optimizations []*model.QueryOptimization
	scans         []*model.DependencyScanResult
	insights      []*model.Insight

	failures map[string]int
}

func newMemStore() *memStore {
	return &memStore{failures: map[string]int{}}
}

func (m *memStore) failNext(op string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = times
}

func (m *memStore) injected(op string) error {
	if m.failures[op] > 0 {
		m.failures[op]--
		return errInjected
	}
	return nil
}

func (m *memStore) ActiveProjects(ctx context.Context) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("ActiveProjects"); err != nil {
		return nil, err
	}
	var out []*model.Project
	for _, p := range m.projects {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ActiveBudgets(ctx context.Context, now time.Time) ([]*model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("ActiveBudgets"); err != nil {
		return nil, err
	}
	var out []*model.Budget
	for _, b := range m.budgets {
		if !now.Before(b.PeriodStart) && now.Before(b.PeriodEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) UpdateBudgetSpent(ctx context.Context, budgetID int64, spent float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdateBudgetSpent"); err != nil {
		return err
	}
	for _, b := range m.budgets {
		if b.ID == budgetID {
			b.SpentAmountUSD = spent
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memStore) SumRequestCost(ctx context.Context, projectID int64, from, to time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("SumRequestCost"); err != nil {
		return 0, err
	}
	var total float64
	for _, r := range m.requests {
		if r.ProjectID == projectID && !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			total += r.CostUSD
		}
	}
	return total, nil
}

func (m *memStore) UnresolvedAlert(ctx context.Context, projectID int64, alertType model.AlertType) (*model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UnresolvedAlert"); err != nil {
		return nil, err
	}
	for _, a := range m.alerts {
		if a.ProjectID == projectID && a.Type == alertType && a.ResolvedAt == nil {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertAlert(ctx context.Context, a *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertAlert"); err != nil {
		return err
	}
	for _, existing := range m.alerts {
		if existing.ProjectID == a.ProjectID && existing.Type == a.Type && existing.ResolvedAt == nil {
			return model.ErrDuplicateAlert
		}
	}
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *memStore) ResolveAlert(ctx context.Context, alertID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == alertID && a.ResolvedAt == nil {
			t := at
			a.ResolvedAt = &t
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memStore) ListAlerts(ctx context.Context, projectID int64, unresolvedOnly bool) ([]*model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Alert
	for _, a := range m.alerts {
		if projectID != 0 && a.ProjectID != projectID {
			continue
		}
		if unresolvedOnly && a.ResolvedAt != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) SlowQueryPatterns(ctx context.Context, since time.Time, minAvgMs float64, minCount int64) ([]model.SlowPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("SlowQueryPatterns"); err != nil {
		return nil, err
	}
	type key struct {
		fp   string
		conn int64
	}
	sums := map[key]float64{}
	counts := map[key]int64{}
	for _, p := range m.patterns {
		if p.Timestamp.Before(since) {
			continue
		}
		k := key{p.Fingerprint, p.ConnectionID}
		sums[k] += p.ExecutionTimeMs
		counts[k]++
	}
	var out []model.SlowPattern
	for k, n := range counts {
		avg := sums[k] / float64(n)
		if avg > minAvgMs && n > minCount {
			out = append(out, model.SlowPattern{
				Fingerprint:  k.fp,
				ConnectionID: k.conn,
				AvgTimeMs:    avg,
				Frequency:    n,
			})
		}
	}
	return out, nil
}

func (m *memStore) UnappliedOptimizationExists(ctx context.Context, fingerprint string, connectionID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UnappliedOptimizationExists"); err != nil {
		return false, err
	}
	for _, o := range m.optimizations {
		if o.Fingerprint == fingerprint && o.ConnectionID == connectionID && !o.IsApplied {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertOptimization(ctx context.Context, o *model.QueryOptimization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertOptimization"); err != nil {
		return err
	}
	m.optimizations = append(m.optimizations, o)
	return nil
}

func (m *memStore) ListOptimizations(ctx context.Context, connectionID int64) ([]*model.QueryOptimization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.QueryOptimization
	for _, o := range m.optimizations {
		if connectionID == 0 || o.ConnectionID == connectionID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) LatestScan(ctx context.Context, projectID int64) (*model.DependencyScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("LatestScan"); err != nil {
		return nil, err
	}
	var latest *model.DependencyScanResult
	for _, s := range m.scans {
		if s.ProjectID != projectID {
			continue
		}
		if latest == nil || s.ScanTimestamp.After(latest.ScanTimestamp) || s.ScanTimestamp.Equal(latest.ScanTimestamp) {
			latest = s
		}
	}
	return latest, nil
}

func (m *memStore) InsertScan(ctx context.Context, s *model.DependencyScanResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertScan"); err != nil {
		return err
	}
	m.scans = append(m.scans, s)
	return nil
}

func (m *memStore) InsertInsight(ctx context.Context, i *model.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertInsight"); err != nil {
		return err
	}
	m.insights = append(m.insights, i)
	return nil
}

func (m *memStore) ListInsights(ctx context.Context, projectID int64, category model.InsightCategory) ([]*model.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Insight
	for _, i := range m.insights {
		if projectID != 0 && i.ProjectID != projectID {
			continue
		}
		if category != "" && i.Category != category {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (m *memStore) AcknowledgeInsight(ctx context.Context, insightID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.insights {
		if i.ID == insightID {
			t := at
			i.AcknowledgedAt = &t
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memStore) ResolveInsight(ctx context.Context, insightID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.insights {
		if i.ID == insightID {
			t := at
			i.ResolvedAt = &t
			return nil
		}
	}
	return model.ErrNotFound
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
