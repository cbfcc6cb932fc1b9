package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Redis    RedisConfig    `json:"redis"`
	Analysis AnalysisConfig `json:"analysis"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// AnalysisConfig drives the periodic analysis scheduler. Interval and
// duration fields are duration strings ("1h", "30m") parsed at wire-up.
type AnalysisConfig struct {
	BudgetInterval       string  `json:"budgetInterval"`
	QueryPatternInterval string  `json:"queryPatternInterval"`
	InsightInterval      string  `json:"insightInterval"`
	RunTimeout           string  `json:"runTimeout"`
	CostThresholdUSD     float64 `json:"costThresholdUSD"`
	InsightDedupeWindow  string  `json:"insightDedupeWindow"`
	RetryAttempts        int     `json:"retryAttempts"`
	RetryBackoff         string  `json:"retryBackoff"`
	RulesetFile          string  `json:"rulesetFile"`
}

func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()

	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "devguard"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "devguard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			BudgetInterval:       getEnv("ANALYSIS_BUDGET_INTERVAL", "1h"),
			QueryPatternInterval: getEnv("ANALYSIS_QUERY_PATTERN_INTERVAL", "6h"),
			InsightInterval:      getEnv("ANALYSIS_INSIGHT_INTERVAL", "24h"),
			RunTimeout:           getEnv("ANALYSIS_RUN_TIMEOUT", "10m"),
			CostThresholdUSD:     getEnvFloat("ANALYSIS_COST_THRESHOLD_USD", 100),
			InsightDedupeWindow:  getEnv("ANALYSIS_INSIGHT_DEDUPE_WINDOW", "0s"),
			RetryAttempts:        getEnvInt("ANALYSIS_RETRY_ATTEMPTS", 3),
			RetryBackoff:         getEnv("ANALYSIS_RETRY_BACKOFF", "500ms"),
			RulesetFile:          getEnv("ANALYSIS_RULESET_FILE", ""),
		},
	}

	if *configFile != "" {
		if err := loadFromFile(cfg, *configFile); err != nil {
			log.Error().Err(err).Str("file", *configFile).Msg("load config file failed")
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Analysis.BudgetInterval == "" {
		cfg.Analysis.BudgetInterval = "1h"
	}
	if cfg.Analysis.QueryPatternInterval == "" {
		cfg.Analysis.QueryPatternInterval = "6h"
	}
	if cfg.Analysis.InsightInterval == "" {
		cfg.Analysis.InsightInterval = "24h"
	}
	if cfg.Analysis.RunTimeout == "" {
		cfg.Analysis.RunTimeout = "10m"
	}
	if cfg.Analysis.CostThresholdUSD == 0 {
		cfg.Analysis.CostThresholdUSD = 100
	}
	if cfg.Analysis.InsightDedupeWindow == "" {
		cfg.Analysis.InsightDedupeWindow = "0s"
	}
	if cfg.Analysis.RetryAttempts == 0 {
		cfg.Analysis.RetryAttempts = 3
	}
	if cfg.Analysis.RetryBackoff == "" {
		cfg.Analysis.RetryBackoff = "500ms"
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
