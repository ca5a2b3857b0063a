package policy

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bioduds/askee/internal/amount"
)

// Load builds a validated Policy the way the teacher's internal/config.
// LoadConfig does (internal/config/loader.go): defaults first, then an
// optional TOML file, then ASKEE_-prefixed environment overrides, then
// validation. configPath may be empty, in which case only defaults and
// environment variables apply.
func Load(configPath string) (*Policy, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("policy: reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ASKEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var p Policy
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("policy: unmarshaling config: %w", err)
	}

	p.BaseRates = convertHourlyToPerSecond(p.BaseRatesPerHour)

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// convertHourlyToPerSecond performs the one-time per-hour-to-per-second
// conversion spec §4.F calls for ("convert once at load"). The result is
// kept as float64: a default rate of 10 mCC/unit/hour is about 0.0028
// mCC/unit/second, and truncating that to an integer mCC here would zero
// out every resource's price before a single charge is ever computed.
func convertHourlyToPerSecond(perHour map[string]amount.MilliCredits) map[string]float64 {
	perSecond := make(map[string]float64, len(perHour))
	for resource, rate := range perHour {
		perSecond[resource] = float64(rate) / 3600.0
	}
	return perSecond
}

// Validate checks a loaded Policy for internal consistency, mirroring the
// teacher's ValidateConfig (internal/config/validation.go): a single
// function, called once, that rejects an unusable configuration before a
// Core is ever constructed from it.
func Validate(p *Policy) error {
	if p.NetworkID == "" {
		return fmt.Errorf("policy: network_id must not be empty")
	}
	if p.FreshnessWindowMs <= 0 {
		return fmt.Errorf("policy: freshness_window_ms must be positive")
	}
	if p.MaxWorkloadDurationS <= 0 {
		return fmt.Errorf("policy: max_workload_duration_s must be positive")
	}
	if p.MaxTokensPerUser <= 0 {
		return fmt.Errorf("policy: max_tokens_per_user must be positive")
	}
	if p.TokenDurationHoursMin < 1 || p.TokenDurationHoursMax > 720 || p.TokenDurationHoursMin > p.TokenDurationHoursMax {
		return fmt.Errorf("policy: token_duration_hours bounds must fall within [1,720]")
	}
	for _, resource := range []string{"cpu", "ram", "storage", "bandwidth"} {
		if _, ok := p.BaseRates[resource]; !ok {
			return fmt.Errorf("policy: missing base rate for resource %q", resource)
		}
	}
	for tier, cfg := range p.Tiers {
		if cfg.MaxConcurrentWorkloads <= 0 {
			return fmt.Errorf("policy: tier %q must allow at least one concurrent workload", tier)
		}
		if !cfg.CreditLimitMCC.IsPositive() {
			return fmt.Errorf("policy: tier %q must have a positive credit limit", tier)
		}
	}
	return nil
}
