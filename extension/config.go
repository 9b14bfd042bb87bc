package extension

// Config holds the Carebill extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.carebill" or "carebill" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for carebill routes (default: "/carebill").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// CapPolicy controls what happens when an event would overrun a funding
	// period cap: "cap" clips the payer share to the remaining budget,
	// "reject" fails the billing run (default: "cap").
	CapPolicy string `json:"cap_policy" mapstructure:"cap_policy" yaml:"cap_policy"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:  "/carebill",
		CapPolicy: "cap",
	}
}
