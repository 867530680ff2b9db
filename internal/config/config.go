// Package config resolves the threshold, display-limit and cache settings
// that drive every report build. Built-in defaults are merged with an
// optional YAML config file; the result is resolved once per invocation
// and passed to the builders as an immutable value.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/lima-zulu/github-org-analyser/internal/domain"
)

const (
	defaultInactiveRepoMonths = 6
	defaultStaleBranchDays    = 90
	defaultOldPRDays          = 30
	defaultBranchCountWarning = 30
	defaultDisplayLimit       = 20
	defaultCacheTTLHours      = 24
	defaultWorkers            = 8
)

// Thresholds holds the numeric cutoffs used to classify repositories.
type Thresholds struct {
	InactiveRepoMonths int `mapstructure:"inactive_repo_months"`
	StaleBranchDays    int `mapstructure:"stale_branch_days"`
	OldPRDays          int `mapstructure:"old_pr_days"`
	BranchCountWarning int `mapstructure:"branch_count_warning"`
}

// DisplayLimits caps how many rows each report returns for presentation.
// The true totals are always recorded alongside the truncated lists.
type DisplayLimits struct {
	Cleanup        int `mapstructure:"cleanup"`
	Security       int `mapstructure:"security"`
	GovernanceRepo int `mapstructure:"governance_repo"`
	GovernanceOrg  int `mapstructure:"governance_org"`
	Costs          int `mapstructure:"costs"`
	Overview       int `mapstructure:"overview"`
}

// For returns the display limit for the given report type.
func (d DisplayLimits) For(reportType string) int {
	switch reportType {
	case domain.ReportCleanup:
		return d.Cleanup
	case domain.ReportSecurity:
		return d.Security
	case domain.ReportGovernanceRepo:
		return d.GovernanceRepo
	case domain.ReportGovernanceOrg:
		return d.GovernanceOrg
	case domain.ReportCosts:
		return d.Costs
	case domain.ReportOverview:
		return d.Overview
	default:
		return defaultDisplayLimit
	}
}

// Config is the full configuration surface consumed by the builders.
type Config struct {
	Thresholds    Thresholds    `mapstructure:"thresholds"`
	DisplayLimits DisplayLimits `mapstructure:"display_limits"`
	CacheTTLHours int           `mapstructure:"cache_ttl_hours"`
	Workers       int           `mapstructure:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}

// Load merges the built-in defaults with the YAML config file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("thresholds.inactive_repo_months", defaultInactiveRepoMonths)
	v.SetDefault("thresholds.stale_branch_days", defaultStaleBranchDays)
	v.SetDefault("thresholds.old_pr_days", defaultOldPRDays)
	v.SetDefault("thresholds.branch_count_warning", defaultBranchCountWarning)
	v.SetDefault("display_limits.cleanup", defaultDisplayLimit)
	v.SetDefault("display_limits.security", defaultDisplayLimit)
	v.SetDefault("display_limits.governance_repo", defaultDisplayLimit)
	v.SetDefault("display_limits.governance_org", defaultDisplayLimit)
	v.SetDefault("display_limits.costs", defaultDisplayLimit)
	v.SetDefault("display_limits.overview", defaultDisplayLimit)
	v.SetDefault("cache_ttl_hours", defaultCacheTTLHours)
	v.SetDefault("workers", defaultWorkers)
}

func (c *Config) validate() error {
	if c.Thresholds.InactiveRepoMonths <= 0 ||
		c.Thresholds.StaleBranchDays <= 0 ||
		c.Thresholds.OldPRDays <= 0 ||
		c.Thresholds.BranchCountWarning <= 0 {
		return errors.New("all thresholds must be positive")
	}
	if c.CacheTTLHours <= 0 {
		return errors.New("cache_ttl_hours must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	return nil
}
