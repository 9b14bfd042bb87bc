package carebill

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/carebill/billing"
	"github.com/xraph/carebill/company"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/plugin"
	"github.com/xraph/carebill/sequence"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/surcharge"
	"github.com/xraph/carebill/types"
)

// Engine is the main billing engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	surcharges surcharge.Provider
	capPolicy  billing.CapPolicy
	now        func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		surcharges: surcharge.None,
		capPolicy:  billing.CapPolicyCap,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithSurchargeProvider sets the surcharge configuration used when pricing
// events. Defaults to no surcharges.
func WithSurchargeProvider(p surcharge.Provider) Option {
	return func(e *Engine) {
		e.surcharges = p
	}
}

// WithCapPolicy decides what happens when a funded event's payer share
// exceeds the funding's remaining cap. Defaults to capping the payer share.
func WithCapPolicy(policy billing.CapPolicy) Option {
	return func(e *Engine) {
		e.capPolicy = policy
	}
}

// WithClock overrides the engine's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates storage and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("carebill started",
		"plugins", e.plugins.Count(),
		"cap_policy", int(e.capPolicy),
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Company Management
// ──────────────────────────────────────────────────

// CreateCompany creates a new billing company.
func (e *Engine) CreateCompany(ctx context.Context, c *company.Company) error {
	if c.Code == "" {
		return ValidationError{Field: "code", Message: "company code is required"}
	}

	if c.ID == (id.CompanyID{}) {
		c.ID = id.NewCompanyID()
	}
	c.Entity = types.NewEntity()

	return e.store.CreateCompany(ctx, c)
}

// GetCompany retrieves a company by ID.
func (e *Engine) GetCompany(ctx context.Context, companyID id.CompanyID) (*company.Company, error) {
	return e.store.GetCompany(ctx, companyID)
}

// UpdateCompany updates a company's mutable fields.
func (e *Engine) UpdateCompany(ctx context.Context, c *company.Company) error {
	c.Touch()
	return e.store.UpdateCompany(ctx, c)
}

// NextQuoteNumber allocates the next quote number (DEV prefix) for the
// company in the period containing at. Quotes share the same per-company,
// per-period counters as bills, credit notes and bill slips.
func (e *Engine) NextQuoteNumber(ctx context.Context, companyID id.CompanyID, at time.Time) (string, error) {
	comp, err := e.store.GetCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	return e.allocateNumber(ctx, comp, sequence.KindQuote, at)
}
