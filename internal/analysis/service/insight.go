package service

import (
	"context"
	"fmt"

	"github.com/devguard/devguard/internal/analysis/model"
	"github.com/rs/zerolog/log"
)

// ProjectAnalyzer inspects one project and may create insights for it.
type ProjectAnalyzer interface {
	Name() string
	AnalyzeProject(ctx context.Context, projectID int64) error
}

// InsightGenerator runs every registered project analyzer against every
// active project. Failures are isolated per (project, analyzer): a
// failing pair is logged and the sweep continues.
type InsightGenerator struct {
	store     Store
	analyzers []ProjectAnalyzer
	retry     RetryPolicy
}

func NewInsightGenerator(store Store, retry RetryPolicy, analyzers ...ProjectAnalyzer) *InsightGenerator {
	return &InsightGenerator{store: store, analyzers: analyzers, retry: retry}
}

func (g *InsightGenerator) Run(ctx context.Context) error {
	var projects []*model.Project
	err := g.retry.Do(ctx, "list active projects", func() error {
		var lerr error
		projects, lerr = g.store.ActiveProjects(ctx)
		return lerr
	})
	if err != nil {
		return fmt.Errorf("list active projects: %w", err)
	}

	for _, p := range projects {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for _, a := range g.analyzers {
			if err := a.AnalyzeProject(ctx, p.ID); err != nil {
				log.Error().Err(err).Int64("project_id", p.ID).Str("analyzer", a.Name()).Msg("project analysis failed, skipping")
			}
		}
	}
	log.Info().Int("projects", len(projects)).Int("analyzers", len(g.analyzers)).Msg("insight generation completed")
	return nil
}
