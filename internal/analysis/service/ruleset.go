package service

import (
	"fmt"
	"os"

	"github.com/devguard/devguard/internal/analysis/model"
	"gopkg.in/yaml.v3"
)

// Ruleset bundles the tunable analyzer thresholds and the canned
// recommendation texts. Defaults match the shipped analysis contract; an
// optional YAML file overrides individual fields.
type Ruleset struct {
	// Query pattern selection: groups with avg execution time above
	// SlowQueryMs AND more than SlowQueryMinCount executions in the
	// trailing window are surfaced.
	SlowQueryMs       float64 `yaml:"slowQueryMs"`
	SlowQueryMinCount int64   `yaml:"slowQueryMinCount"`

	// Dependency risk: more vulnerabilities than CriticalVulnCount in the
	// latest scan escalates the insight to critical.
	CriticalVulnCount int `yaml:"criticalVulnCount"`

	// Cost insight threshold over the trailing 30 days.
	CostThresholdUSD float64 `yaml:"costThresholdUSD"`

	// Budget thresholds applied when a budget carries none of its own.
	BudgetThresholds map[string]float64 `yaml:"budgetThresholds"`

	CostActions     []string `yaml:"costActions"`
	SecurityActions []string `yaml:"securityActions"`
}

// DefaultRuleset returns the built-in analyzer configuration.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		SlowQueryMs:       100,
		SlowQueryMinCount: 10,
		CriticalVulnCount: 5,
		CostThresholdUSD:  100,
		BudgetThresholds:  model.DefaultAlertThresholds,
		CostActions: []string{
			"Review API usage patterns",
			"Consider implementing caching",
			"Optimize request frequency",
		},
		SecurityActions: []string{
			"Update vulnerable dependencies",
			"Review security advisories",
			"Consider alternative packages",
		},
	}
}

// LoadRuleset reads a YAML override file on top of the defaults. An
// empty path returns the defaults unchanged.
func LoadRuleset(path string) (*Ruleset, error) {
	rs := DefaultRuleset()
	if path == "" {
		return rs, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse ruleset file %s: %w", path, err)
	}
	if rs.SlowQueryMs <= 0 || rs.SlowQueryMinCount <= 0 {
		return nil, fmt.Errorf("ruleset file %s: slow query thresholds must be positive", path)
	}
	if rs.CostThresholdUSD <= 0 {
		return nil, fmt.Errorf("ruleset file %s: cost threshold must be positive", path)
	}
	return rs, nil
}
