// Package extension provides the Forge extension adapter for Pointledger.
//
// It implements the forge.Extension interface to integrate Pointledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management. Deploying the engine behind
// a Forge app keeps a single authoritative coordinator inside the trust
// boundary; clients only ever see the operation surface.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.pointledger" or
// "pointledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	pointledger "github.com/xraph/pointledger"
	"github.com/xraph/pointledger/store"
	"github.com/xraph/pointledger/store/memory"
	"github.com/xraph/pointledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "pointledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Point ledger and transaction engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Pointledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *pointledger.Engine
	store      store.Store
	engineOpts []pointledger.Option
}

// New creates a new Pointledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Pointledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *pointledger.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := pointledger.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*pointledger.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("pointledger: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("pointledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs pointledger.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []pointledger.Option {
	opts := make([]pointledger.Option, 0, len(e.engineOpts)+3)

	if e.config.MaxAttempts > 0 {
		opts = append(opts, pointledger.WithMaxAttempts(e.config.MaxAttempts))
	}
	if e.config.ChargeLimit > 0 {
		opts = append(opts, pointledger.WithChargeLimit(types.Points(e.config.ChargeLimit)))
	}
	if e.config.StartingBalance > 0 {
		opts = append(opts, pointledger.WithStartingBalance(types.Points(e.config.StartingBalance)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("pointledger: configuration is required but not found in config files; " +
				"ensure 'extensions.pointledger' or 'pointledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("pointledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("max_attempts", e.config.MaxAttempts),
		forge.F("charge_limit", e.config.ChargeLimit),
		forge.F("starting_balance", e.config.StartingBalance),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.pointledger" first (namespaced pattern).
	if cm.IsSet("extensions.pointledger") {
		if err := cm.Bind("extensions.pointledger", &cfg); err == nil {
			e.Logger().Debug("pointledger: loaded config from file",
				forge.F("key", "extensions.pointledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("pointledger: failed to bind extensions.pointledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "pointledger" key.
	if cm.IsSet("pointledger") {
		if err := cm.Bind("pointledger", &cfg); err == nil {
			e.Logger().Debug("pointledger: loaded config from file",
				forge.F("key", "pointledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("pointledger: failed to bind pointledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.ChargeLimit == 0 {
		cfg.ChargeLimit = defaults.ChargeLimit
	}
	if cfg.StartingBalance == 0 {
		cfg.StartingBalance = defaults.StartingBalance
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MaxAttempts == 0 && programmaticConfig.MaxAttempts != 0 {
		yamlConfig.MaxAttempts = programmaticConfig.MaxAttempts
	}
	if yamlConfig.ChargeLimit == 0 && programmaticConfig.ChargeLimit != 0 {
		yamlConfig.ChargeLimit = programmaticConfig.ChargeLimit
	}
	if yamlConfig.StartingBalance == 0 && programmaticConfig.StartingBalance != 0 {
		yamlConfig.StartingBalance = programmaticConfig.StartingBalance
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
