package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devguard/devguard/internal/analysis/api"
	"github.com/devguard/devguard/internal/analysis/database"
	"github.com/devguard/devguard/internal/analysis/service"
	"github.com/devguard/devguard/internal/config"
	"github.com/devguard/devguard/internal/middleware"
)

func main() {
	// load config first
	log.Info().Msg("Starting devguard analysis server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// configure log level from config
	switch strings.ToLower(cfg.Logging.Level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.New(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open analysis database")
	}
	defer db.Close()
	store := database.NewStore(db)

	ruleset, err := service.LoadRuleset(cfg.Analysis.RulesetFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load analysis ruleset")
	}
	if cfg.Analysis.CostThresholdUSD > 0 {
		ruleset.CostThresholdUSD = cfg.Analysis.CostThresholdUSD
	}

	clock := service.SystemClock()
	retry := service.RetryPolicy{
		Attempts: cfg.Analysis.RetryAttempts,
		Backoff:  parseDuration(cfg.Analysis.RetryBackoff, 500*time.Millisecond),
	}

	// insight dedupe window: 0 keeps every sweep's insights, >0 suppresses
	// repeats through redis
	deduper := service.NoopDeduper()
	if window := parseDuration(cfg.Analysis.InsightDedupeWindow, 0); window > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deduper = service.NewRedisInsightDeduper(rdb, window)
		log.Info().Dur("window", window).Msg("insight dedupe window enabled")
	}

	alerts := service.NewAlertDeduplicator(store, clock)
	budgets := service.NewBudgetEvaluator(store, clock, alerts, ruleset, retry)
	patterns := service.NewQueryPatternAnalyzer(store, clock, service.NewHeuristicRecommender(store, clock), ruleset, retry)
	insights := service.NewInsightGenerator(store, retry,
		service.NewDependencyRiskAnalyzer(store, clock, deduper, ruleset, retry),
		service.NewCostInsightAnalyzer(store, clock, deduper, ruleset, retry),
	)

	scheduler := service.NewScheduler(parseDuration(cfg.Analysis.RunTimeout, 10*time.Minute))
	scheduler.Register(service.Task{
		Name:     "budget_check",
		Interval: parseDuration(cfg.Analysis.BudgetInterval, time.Hour),
		Run:      budgets.Run,
	})
	scheduler.Register(service.Task{
		Name:     "query_patterns",
		Interval: parseDuration(cfg.Analysis.QueryPatternInterval, 6*time.Hour),
		Run:      patterns.Run,
	})
	scheduler.Register(service.Task{
		Name:     "insight_generation",
		Interval: parseDuration(cfg.Analysis.InsightInterval, 24*time.Hour),
		Run:      insights.Run,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Authentication)
	api.NewApi(router, store, service.NewStubScanner(store, clock), clock)
	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("start devguard api server failed.")
	}
	log.Info().Msg("devguard api server exit...")
}

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}
