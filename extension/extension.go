// Package extension provides the Forge extension adapter for Carebill.
//
// It implements the forge.Extension interface to integrate Carebill
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.carebill" or
// "carebill" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	carebill "github.com/xraph/carebill"
	"github.com/xraph/carebill/billing"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "carebill"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Home-care subscription billing and reconciliation engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Carebill as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *carebill.Engine
	store      store.Store
	engineOpts []carebill.Option
}

// New creates a new Carebill Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Carebill instance.
// This is nil until Register is called.
func (e *Extension) Engine() *carebill.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the billing engine, and registers it in the DI container.
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
	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	eng := carebill.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*carebill.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("carebill: extension not initialized")
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
		return errors.New("carebill: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs carebill.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]carebill.Option, error) {
	opts := make([]carebill.Option, 0, len(e.engineOpts)+1)

	switch e.config.CapPolicy {
	case "", "cap":
		opts = append(opts, carebill.WithCapPolicy(billing.CapPolicyCap))
	case "reject":
		opts = append(opts, carebill.WithCapPolicy(billing.CapPolicyReject))
	default:
		return nil, errors.New("carebill: unknown cap_policy " + e.config.CapPolicy)
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("carebill: configuration is required but not found in config files; " +
				"ensure 'extensions.carebill' or 'carebill' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("carebill: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("cap_policy", e.config.CapPolicy),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.carebill" first (namespaced pattern).
	if cm.IsSet("extensions.carebill") {
		if err := cm.Bind("extensions.carebill", &cfg); err == nil {
			e.Logger().Debug("carebill: loaded config from file",
				forge.F("key", "extensions.carebill"),
			)
			return cfg, true
		}
		e.Logger().Warn("carebill: failed to bind extensions.carebill config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "carebill" key.
	if cm.IsSet("carebill") {
		if err := cm.Bind("carebill", &cfg); err == nil {
			e.Logger().Debug("carebill: loaded config from file",
				forge.F("key", "carebill"),
			)
			return cfg, true
		}
		e.Logger().Warn("carebill: failed to bind carebill config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.CapPolicy == "" {
		cfg.CapPolicy = defaults.CapPolicy
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.CapPolicy == "" && programmaticConfig.CapPolicy != "" {
		yamlConfig.CapPolicy = programmaticConfig.CapPolicy
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
