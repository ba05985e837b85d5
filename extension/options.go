package extension

import (
	"github.com/xraph/grove"

	pointledger "github.com/xraph/pointledger"
	"github.com/xraph/pointledger/plugin"
	"github.com/xraph/pointledger/store"
	mongostore "github.com/xraph/pointledger/store/mongo"
)

// Option configures the Pointledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a pointledger.Option through to the underlying engine.
func WithEngineOption(opt pointledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, pointledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMaxAttempts bounds the conflict-retry loop.
func WithMaxAttempts(n int) Option {
	return func(e *Extension) { e.config.MaxAttempts = n }
}

// WithChargeLimit sets the per-charge amount cap.
func WithChargeLimit(limit int64) Option {
	return func(e *Extension) { e.config.ChargeLimit = limit }
}

// WithStartingBalance sets the balance newly registered accounts are seeded with.
func WithStartingBalance(balance int64) Option {
	return func(e *Extension) { e.config.StartingBalance = balance }
}

// WithGroveDB wraps the given grove database in the MongoDB store backend
// and uses it for the engine. Shorthand for WithStore(mongo.New(db)).
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = mongostore.New(db)
	}
}
