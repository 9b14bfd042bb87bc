package extension

import (
	carebill "github.com/xraph/carebill"
	"github.com/xraph/carebill/plugin"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/surcharge"
)

// Option configures the Carebill Forge extension.
type Option func(*Extension)

// WithStore sets the store for the billing engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a carebill.Option through to the underlying engine.
func WithEngineOption(opt carebill.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a carebill plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, carebill.WithPlugin(p))
	}
}

// WithSurchargeProvider sets the surcharge provider for event pricing.
func WithSurchargeProvider(p surcharge.Provider) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, carebill.WithSurchargeProvider(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for carebill routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithCapPolicy sets the funding cap policy name ("cap" or "reject").
func WithCapPolicy(policy string) Option {
	return func(e *Extension) { e.config.CapPolicy = policy }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
