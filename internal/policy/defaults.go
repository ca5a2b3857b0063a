package policy

import "github.com/spf13/viper"

// SetDefaults installs every default value named by spec §4.F and §4.E,
// mirroring the teacher's config.setDefaults (internal/config/defaults.go):
// one function, one viper instance, called before any file or environment
// override is applied.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("network_id", "askee-mainnet")

	// Base rates are configured per-hour (source figures) and converted to
	// per-second once at Load time (spec §4.F).
	v.SetDefault("base_rates_per_hour.cpu", 10)
	v.SetDefault("base_rates_per_hour.ram", 5)
	v.SetDefault("base_rates_per_hour.storage", 1)
	v.SetDefault("base_rates_per_hour.bandwidth", 2)

	v.SetDefault("minimum_balance_mcc", 0)
	v.SetDefault("deposit_required_mcc", 0)

	v.SetDefault("freshness_window_ms", 300_000)
	v.SetDefault("max_workload_duration_s", 3600)

	v.SetDefault("max_tokens_per_user", 10)
	v.SetDefault("token_duration_hours_min", 1)
	v.SetDefault("token_duration_hours_max", 720)

	v.SetDefault("priority_multipliers.low", 1.0)
	v.SetDefault("priority_multipliers.medium", 1.5)
	v.SetDefault("priority_multipliers.high", 2.0)
	v.SetDefault("priority_multipliers.critical", 3.0)

	v.SetDefault("tiers.basic.allowed_models", []string{"mini-text"})
	v.SetDefault("tiers.basic.max_concurrent_workloads", 1)
	v.SetDefault("tiers.basic.credit_limit_mcc", 1_000_000)

	v.SetDefault("tiers.advanced.allowed_models", []string{"mini-text", "llm-8b"})
	v.SetDefault("tiers.advanced.max_concurrent_workloads", 3)
	v.SetDefault("tiers.advanced.credit_limit_mcc", 5_000_000)

	v.SetDefault("tiers.expert.allowed_models", []string{"mini-text", "llm-8b", "image-gen"})
	v.SetDefault("tiers.expert.max_concurrent_workloads", 5)
	v.SetDefault("tiers.expert.credit_limit_mcc", 15_000_000)

	v.SetDefault("tiers.admin.allowed_models", []string{"*"})
	v.SetDefault("tiers.admin.max_concurrent_workloads", 10)
	v.SetDefault("tiers.admin.credit_limit_mcc", 50_000_000)

	v.SetDefault("alerts.reputation_floor", 20)
	v.SetDefault("alerts.latency_p99_ms", 5000)

	v.SetDefault("diagnostics", false)

	v.SetDefault("require_consent", true)
	v.SetDefault("full_consent_check", true)

	// Pricing constants for the workload execution cost function (spec
	// §4.E), independent of the per-resource base_rates used for
	// consent-gated billing.
	v.SetDefault("pricing_base_rate_per_second", 10)
	v.SetDefault("pricing_memory_rate_per_mb", 1)
	v.SetDefault("pricing_token_rate", 1)
}
