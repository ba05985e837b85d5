package extension

// Config holds the Pointledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.pointledger" or "pointledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// MaxAttempts bounds the conflict-retry loop for charges and
	// transfers (default: 5).
	MaxAttempts int `json:"max_attempts" mapstructure:"max_attempts" yaml:"max_attempts"`

	// ChargeLimit is the maximum amount a single charge may add
	// (default: 1,000,000).
	ChargeLimit int64 `json:"charge_limit" mapstructure:"charge_limit" yaml:"charge_limit"`

	// StartingBalance is the balance newly registered accounts are seeded
	// with (default: 100,000).
	StartingBalance int64 `json:"starting_balance" mapstructure:"starting_balance" yaml:"starting_balance"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		ChargeLimit:     1_000_000,
		StartingBalance: 100_000,
	}
}
