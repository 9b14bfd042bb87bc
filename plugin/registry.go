package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onCustomerStopped   []OnCustomerStopped
	onCustomerArchived  []OnCustomerArchived
	onCustomerDeleted   []OnCustomerDeleted
	onSubCreated        []OnSubscriptionCreated
	onFundingCreated    []OnFundingCreated
	onFundingEnded      []OnFundingEnded
	onCapExceeded       []OnCapExceeded
	onEventBilled       []OnEventBilled
	onBillCreated       []OnBillCreated
	onBillDeleted       []OnBillDeleted
	onCreditNoteCreated []OnCreditNoteCreated
	onCreditNoteDeleted []OnCreditNoteDeleted
	onSequenceAllocated []OnSequenceAllocated
	numberFormatters    map[string]NumberFormatter
	exportTargets       []ExportTarget
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:           slog.Default(),
		numberFormatters: make(map[string]NumberFormatter),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCustomerStopped); ok {
		r.onCustomerStopped = append(r.onCustomerStopped, v)
	}
	if v, ok := p.(OnCustomerArchived); ok {
		r.onCustomerArchived = append(r.onCustomerArchived, v)
	}
	if v, ok := p.(OnCustomerDeleted); ok {
		r.onCustomerDeleted = append(r.onCustomerDeleted, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubCreated = append(r.onSubCreated, v)
	}
	if v, ok := p.(OnFundingCreated); ok {
		r.onFundingCreated = append(r.onFundingCreated, v)
	}
	if v, ok := p.(OnFundingEnded); ok {
		r.onFundingEnded = append(r.onFundingEnded, v)
	}
	if v, ok := p.(OnCapExceeded); ok {
		r.onCapExceeded = append(r.onCapExceeded, v)
	}
	if v, ok := p.(OnEventBilled); ok {
		r.onEventBilled = append(r.onEventBilled, v)
	}
	if v, ok := p.(OnBillCreated); ok {
		r.onBillCreated = append(r.onBillCreated, v)
	}
	if v, ok := p.(OnBillDeleted); ok {
		r.onBillDeleted = append(r.onBillDeleted, v)
	}
	if v, ok := p.(OnCreditNoteCreated); ok {
		r.onCreditNoteCreated = append(r.onCreditNoteCreated, v)
	}
	if v, ok := p.(OnCreditNoteDeleted); ok {
		r.onCreditNoteDeleted = append(r.onCreditNoteDeleted, v)
	}
	if v, ok := p.(OnSequenceAllocated); ok {
		r.onSequenceAllocated = append(r.onSequenceAllocated, v)
	}
	if v, ok := p.(NumberFormatter); ok {
		r.numberFormatters[v.FormatsKind()] = v
	}
	if v, ok := p.(ExportTarget); ok {
		r.exportTargets = append(r.exportTargets, v)
	}

	r.logger.Debug("plugin registered",
		"plugin", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCustomerStopped)(nil)).Elem(), "OnCustomerStopped")
	checkInterface(reflect.TypeOf((*OnCustomerArchived)(nil)).Elem(), "OnCustomerArchived")
	checkInterface(reflect.TypeOf((*OnSubscriptionCreated)(nil)).Elem(), "OnSubscriptionCreated")
	checkInterface(reflect.TypeOf((*OnFundingCreated)(nil)).Elem(), "OnFundingCreated")
	checkInterface(reflect.TypeOf((*OnCapExceeded)(nil)).Elem(), "OnCapExceeded")
	checkInterface(reflect.TypeOf((*OnEventBilled)(nil)).Elem(), "OnEventBilled")
	checkInterface(reflect.TypeOf((*OnBillCreated)(nil)).Elem(), "OnBillCreated")
	checkInterface(reflect.TypeOf((*OnCreditNoteCreated)(nil)).Elem(), "OnCreditNoteCreated")
	checkInterface(reflect.TypeOf((*OnSequenceAllocated)(nil)).Elem(), "OnSequenceAllocated")
	checkInterface(reflect.TypeOf((*NumberFormatter)(nil)).Elem(), "NumberFormatter")
	checkInterface(reflect.TypeOf((*ExportTarget)(nil)).Elem(), "ExportTarget")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Emitters
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerStopped emits a customer stopped event.
func (r *Registry) EmitCustomerStopped(ctx context.Context, customer interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerStopped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerStopped(ctx, customer)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerStopped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerArchived emits a customer archived event.
func (r *Registry) EmitCustomerArchived(ctx context.Context, customer interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerArchived
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerArchived(ctx, customer)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerArchived failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerDeleted emits a customer deleted event.
func (r *Registry) EmitCustomerDeleted(ctx context.Context, customerID string) {
	r.mu.RLock()
	plugins := r.onCustomerDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerDeleted(ctx, customerID)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundingCreated emits a funding created event.
func (r *Registry) EmitFundingCreated(ctx context.Context, funding interface{}) {
	r.mu.RLock()
	plugins := r.onFundingCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundingCreated(ctx, funding)
		}); err != nil {
			r.logger.Warn("plugin OnFundingCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundingEnded emits a funding ended event.
func (r *Registry) EmitFundingEnded(ctx context.Context, funding interface{}) {
	r.mu.RLock()
	plugins := r.onFundingEnded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundingEnded(ctx, funding)
		}); err != nil {
			r.logger.Warn("plugin OnFundingEnded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCapExceeded emits a funding cap exceeded event.
func (r *Registry) EmitCapExceeded(ctx context.Context, fundingID, period, requested, remaining string) {
	r.mu.RLock()
	plugins := r.onCapExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCapExceeded(ctx, fundingID, period, requested, remaining)
		}); err != nil {
			r.logger.Warn("plugin OnCapExceeded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEventBilled emits an event billed event.
func (r *Registry) EmitEventBilled(ctx context.Context, event interface{}) {
	r.mu.RLock()
	plugins := r.onEventBilled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEventBilled(ctx, event)
		}); err != nil {
			r.logger.Warn("plugin OnEventBilled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillCreated emits a bill created event.
func (r *Registry) EmitBillCreated(ctx context.Context, bill interface{}) {
	r.mu.RLock()
	plugins := r.onBillCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillCreated(ctx, bill)
		}); err != nil {
			r.logger.Warn("plugin OnBillCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillDeleted emits a bill deleted event.
func (r *Registry) EmitBillDeleted(ctx context.Context, billID string) {
	r.mu.RLock()
	plugins := r.onBillDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillDeleted(ctx, billID)
		}); err != nil {
			r.logger.Warn("plugin OnBillDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreditNoteCreated emits a credit note created event.
func (r *Registry) EmitCreditNoteCreated(ctx context.Context, note interface{}) {
	r.mu.RLock()
	plugins := r.onCreditNoteCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditNoteCreated(ctx, note)
		}); err != nil {
			r.logger.Warn("plugin OnCreditNoteCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreditNoteDeleted emits a credit note deleted event.
func (r *Registry) EmitCreditNoteDeleted(ctx context.Context, noteID string) {
	r.mu.RLock()
	plugins := r.onCreditNoteDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditNoteDeleted(ctx, noteID)
		}); err != nil {
			r.logger.Warn("plugin OnCreditNoteDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSequenceAllocated emits a document number allocation event.
func (r *Registry) EmitSequenceAllocated(ctx context.Context, kind, number string) {
	r.mu.RLock()
	plugins := r.onSequenceAllocated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSequenceAllocated(ctx, kind, number)
		}); err != nil {
			r.logger.Warn("plugin OnSequenceAllocated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetNumberFormatter returns the formatter registered for a document kind.
func (r *Registry) GetNumberFormatter(kind string) NumberFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numberFormatters[kind]
}

// GetExportTargets returns all registered export targets.
func (r *Registry) GetExportTargets() []ExportTarget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ExportTarget, len(r.exportTargets))
	copy(result, r.exportTargets)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
