package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is one scheduled unit: an analyzer entry point invoked on a fixed
// interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives the periodic analysis tasks. Each task gets its own
// ticker goroutine, so a slow run of one analyzer never delays another.
// Runs of the same task never overlap: a tick that fires while the
// previous run is still executing is skipped, not queued. Constructed
// once per process; test harnesses build their own with fake clocks and
// in-memory stores.
type Scheduler struct {
	tasks      []*scheduledTask
	runTimeout time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type scheduledTask struct {
	Task
	inflight atomic.Bool
}

// NewScheduler creates a scheduler whose individual runs are bounded by
// runTimeout (0 disables the per-run deadline).
func NewScheduler(runTimeout time.Duration) *Scheduler {
	return &Scheduler{runTimeout: runTimeout}
}

// Register adds a task. Must be called before Start.
func (s *Scheduler) Register(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		log.Error().Str("task", t.Name).Msg("register after start ignored")
		return
	}
	s.tasks = append(s.tasks, &scheduledTask{Task: t})
}

// Start launches all registered task loops. Each task runs once
// immediately, then on every interval tick until Stop or ctx
// cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		if t.Interval <= 0 || t.Run == nil {
			log.Error().Str("task", t.Name).Dur("interval", t.Interval).Msg("invalid task skipped")
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	log.Info().Int("tasks", len(s.tasks)).Msg("analysis scheduler started")
}

// Stop cancels all task loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	log.Info().Msg("analysis scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *scheduledTask) {
	defer s.wg.Done()

	s.runOnce(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

// runOnce executes one task invocation behind the reentrancy guard. A
// failing or panicking run is logged at the invocation boundary and
// never stops the ticker or sibling tasks.
func (s *Scheduler) runOnce(ctx context.Context, t *scheduledTask) {
	if !t.inflight.CompareAndSwap(false, true) {
		taskSkips.WithLabelValues(t.Name).Inc()
		log.Warn().Str("task", t.Name).Msg("previous run still executing, skipping tick")
		return
	}
	defer t.inflight.Store(false)

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	err := s.invoke(runCtx, t)
	taskDuration.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		taskRuns.WithLabelValues(t.Name, "error").Inc()
		log.Error().Err(err).Str("task", t.Name).Dur("elapsed", time.Since(start)).Msg("analysis task failed")
		return
	}
	taskRuns.WithLabelValues(t.Name, "ok").Inc()
	log.Debug().Str("task", t.Name).Dur("elapsed", time.Since(start)).Msg("analysis task completed")
}

func (s *Scheduler) invoke(ctx context.Context, t *scheduledTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", t.Name).Any("panic", r).Msg("analysis task panicked")
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
	}()
	return t.Run(ctx)
}
