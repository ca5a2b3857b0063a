// Package policy holds the kernel's rate tables and tunables (spec §4.F): a
// plain configuration object loaded once at startup and handed by value (or
// pointer-read-only) to every other component. It never mutates after load,
// mirroring the teacher's immutable-after-LoadConfig internal/config.Config.
package policy

import "github.com/bioduds/askee/internal/amount"

// Tier is an agent authorization tier (spec §4.E).
type Tier string

const (
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
	TierExpert   Tier = "expert"
	TierAdmin    Tier = "admin"
)

// TierConfig is one authorization tier's allowed models, concurrency cap,
// and credit limit (spec §4.E "Agent authorization tiers").
type TierConfig struct {
	AllowedModels          []string            `mapstructure:"allowed_models"`
	MaxConcurrentWorkloads int                 `mapstructure:"max_concurrent_workloads"`
	CreditLimitMCC         amount.MilliCredits `mapstructure:"credit_limit_mcc"`
}

// AllowsModel reports whether modelID is permitted for this tier, honoring
// the admin wildcard (spec §4.E step 3).
func (t TierConfig) AllowsModel(modelID string) bool {
	for _, m := range t.AllowedModels {
		if m == "*" || m == modelID {
			return true
		}
	}
	return false
}

// ModelACLAccessLevel controls who may reach a model (spec §4.E step 6).
type ModelACLAccessLevel string

const (
	AccessPublic     ModelACLAccessLevel = "public"
	AccessRestricted ModelACLAccessLevel = "restricted"
	AccessPrivate    ModelACLAccessLevel = "private"
)

// ModelACL is a per-model access control entry (spec §4.F model_acl).
type ModelACL struct {
	AuthorizedNetworks []string             `mapstructure:"authorized_networks"`
	AccessLevel        ModelACLAccessLevel  `mapstructure:"access_level"`
	AuthorizedAgents   []string             `mapstructure:"authorized_agents"`
}

// Authorizes reports whether networkID/agentID may use this model
// (spec §4.E step 6: network membership always checked; agent allow-list
// only enforced for restricted/private access levels).
func (acl ModelACL) Authorizes(networkID, agentID string) bool {
	if !containsString(acl.AuthorizedNetworks, networkID) {
		return false
	}
	if acl.AccessLevel == AccessRestricted || acl.AccessLevel == AccessPrivate {
		return containsString(acl.AuthorizedAgents, agentID)
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// RateLimit is a fixed-window per-minute/hour/day counter ceiling
// (SPEC_FULL §E addition, keyed on agent_id × model_id).
type RateLimit struct {
	PerMinute int `mapstructure:"per_minute"`
	PerHour   int `mapstructure:"per_hour"`
	PerDay    int `mapstructure:"per_day"`
}

// AlertThresholds are optional escalation points (spec §4.F, "optional").
type AlertThresholds struct {
	ReputationFloor  int     `mapstructure:"reputation_floor"`
	LatencyP99Millis int64   `mapstructure:"latency_p99_ms"`
}

// Policy is the complete, validated rate/config table (spec §4.F).
type Policy struct {
	NetworkID string `mapstructure:"network_id"`

	// BaseRates maps a lowercase resource name (cpu/ram/storage/bandwidth)
	// to its mCC-per-unit-per-second rate, already converted from the
	// configured per-hour figure (spec §4.F: "convert once at load"). A
	// per-second rate is fractional even when the per-hour figure is a
	// small integer (10 mCC/unit/hour ≈ 0.0028 mCC/unit/second), so this
	// stays float64 all the way to the final per-charge rounding in
	// consent.Manager rather than truncating to zero here.
	BaseRates map[string]float64 `mapstructure:"-"`
	// BaseRatesPerHour is the configuration-file-facing value; Load
	// converts it into BaseRates.
	BaseRatesPerHour map[string]amount.MilliCredits `mapstructure:"base_rates_per_hour"`

	MinimumBalanceMCC  amount.MilliCredits `mapstructure:"minimum_balance_mcc"`
	DepositRequiredMCC amount.MilliCredits `mapstructure:"deposit_required_mcc"`

	FreshnessWindowMs    int64 `mapstructure:"freshness_window_ms"`
	MaxWorkloadDurationS int64 `mapstructure:"max_workload_duration_s"`

	MaxTokensPerUser     int `mapstructure:"max_tokens_per_user"`
	TokenDurationHoursMin int `mapstructure:"token_duration_hours_min"`
	TokenDurationHoursMax int `mapstructure:"token_duration_hours_max"`

	ModelACL map[string]ModelACL  `mapstructure:"model_acl"`
	Tiers    map[Tier]TierConfig  `mapstructure:"tiers"`

	PriorityMultipliers map[string]float64 `mapstructure:"priority_multipliers"`
	RateLimits          map[string]RateLimit `mapstructure:"rate_limits"`
	Alerts              AlertThresholds      `mapstructure:"alerts"`

	// Diagnostics switches on verbose per-predicate admission detail
	// (SPEC_FULL §E addition, mirroring the teacher's --debug/--verbose
	// flags) — never enabled by default in a production build.
	Diagnostics bool `mapstructure:"diagnostics"`

	// RequireConsent gates step 5 of the admission pipeline: whether a
	// workload request must present a consent token at all (spec §4.E step
	// 5, "if policy requires it").
	RequireConsent bool `mapstructure:"require_consent"`
	// FullConsentCheck additionally runs the five-predicate §4.D validation
	// against the presented token; when false, only token presence is
	// checked (spec §4.E step 5, "if full check enabled").
	FullConsentCheck bool `mapstructure:"full_consent_check"`

	// Pricing constants for the workload execution cost function (spec
	// §4.E "Pricing function" — distinct from BaseRates, which price
	// consent-gated per-resource billing). Policy constants, not derived.
	PricingBaseRatePerSecond amount.MilliCredits `mapstructure:"pricing_base_rate_per_second"`
	PricingMemoryRatePerMB   amount.MilliCredits `mapstructure:"pricing_memory_rate_per_mb"`
	PricingTokenRate         amount.MilliCredits `mapstructure:"pricing_token_rate"`
}

// BaseRatePerUnitPerSecond implements consent.RateTable.
func (p *Policy) BaseRatePerUnitPerSecond(resource string) (float64, bool) {
	rate, ok := p.BaseRates[resource]
	return rate, ok
}

// PriorityMultiplier returns the configured multiplier for priority, or 1.0
// if unrecognized (spec §4.E pricing function).
func (p *Policy) PriorityMultiplier(priority string) float64 {
	if m, ok := p.PriorityMultipliers[priority]; ok {
		return m
	}
	return 1.0
}
