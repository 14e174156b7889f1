// Package tenant owns the per-tenant billing settings the engine is
// parameterized by: tax rate and tax mode, cached locally, with hard-coded
// defaults until the tenant's real settings are confirmed.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tillsync/internal/billing"
	"tillsync/internal/localstore"
	"tillsync/internal/model"
	"tillsync/internal/remote"
)

// Defaults used until a tenant's settings are loaded, and whenever loading
// fails outright.
const (
	DefaultTaxRate = 5.0
	DefaultTaxMode = billing.TaxInclusive
)

// Config is the resolved billing configuration. Ready distinguishes
// confirmed tenant settings from the defaults: consumers always get a
// usable value either way.
type Config struct {
	TaxRate float64
	TaxMode billing.TaxMode
	Ready   bool
}

func defaultConfig() Config {
	return Config{TaxRate: DefaultTaxRate, TaxMode: DefaultTaxMode}
}

// Loader tracks the active tenant and (re)loads its billing settings.
// Loads are guarded by a generation counter: a load that completes after
// the tenant has changed again is discarded on arrival, never applied.
type Loader struct {
	store  *localstore.Store
	source remote.DataSource

	mu       sync.Mutex
	gen      uint64
	tenantID string
	cfg      Config
}

// NewLoader creates a loader exposing defaults until a tenant is set.
func NewLoader(store *localstore.Store, source remote.DataSource) *Loader {
	return &Loader{store: store, source: source, cfg: defaultConfig()}
}

// Config returns the current billing configuration. Never blocks and
// never returns an unusable value.
func (l *Loader) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// TenantID returns the active tenant, empty when torn down.
func (l *Loader) TenantID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tenantID
}

// SetTenant switches the active tenant: state drops to defaults
// immediately and the tenant's settings load in the background. Any load
// still in flight for a previous tenant is invalidated by the generation
// bump.
func (l *Loader) SetTenant(ctx context.Context, tenantID string) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.tenantID = tenantID
	l.cfg = defaultConfig()
	l.mu.Unlock()

	go func() { _ = l.loadGen(ctx, gen, tenantID) }()
}

// Reset tears down the tenant context: defaults, not ready, and any
// in-flight load invalidated.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.tenantID = ""
	l.cfg = defaultConfig()
}

// loadGen fetches settings for one (generation, tenant) pair and applies
// them only if the generation is still current on arrival.
func (l *Loader) loadGen(ctx context.Context, gen uint64, tenantID string) error {
	cfg, err := l.fetch(ctx, tenantID)
	if err != nil {
		// Defaults stay in place; not ready.
		return err
	}
	l.apply(gen, cfg)
	return nil
}

// fetch resolves settings remote-first, falling back to the locally cached
// copy from a previous confirmed load. Both failing means the
// configuration is unavailable and defaults hold.
func (l *Loader) fetch(ctx context.Context, tenantID string) (Config, error) {
	bc, err := l.fetchRemote(ctx, tenantID)
	if err == nil {
		l.cache(ctx, tenantID, bc)
		return confirmed(bc), nil
	}

	cached, cacheErr := localstore.GetValue[model.BillingConfig](
		ctx, l.store, localstore.CollectionSettings, settingsKey(tenantID))
	if cacheErr == nil {
		return confirmed(cached), nil
	}

	return Config{}, fmt.Errorf("tenant %s: %w: %w", tenantID, remote.ErrConfigUnavailable, err)
}

func (l *Loader) fetchRemote(ctx context.Context, tenantID string) (model.BillingConfig, error) {
	rows, err := l.source.SelectByTenant(ctx, "tenant_settings", tenantID)
	if err != nil {
		return model.BillingConfig{}, err
	}
	if len(rows) == 0 {
		return model.BillingConfig{}, remote.ErrConfigUnavailable
	}

	var bc model.BillingConfig
	if err := json.Unmarshal(rows[0], &bc); err != nil {
		return model.BillingConfig{}, fmt.Errorf("decode tenant settings: %w", err)
	}
	return bc, nil
}

// cache stores a confirmed config locally so the next tenant switch works
// offline. A cache write failure does not fail the load.
func (l *Loader) cache(ctx context.Context, tenantID string, bc model.BillingConfig) {
	_ = localstore.PutValue(ctx, l.store,
		localstore.CollectionSettings, settingsKey(tenantID), "", bc)
}

// apply installs a loaded config unless the generation moved on.
func (l *Loader) apply(gen uint64, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return // stale load; a newer tenant context owns the state now
	}
	l.cfg = cfg
}

func confirmed(bc model.BillingConfig) Config {
	cfg := Config{
		TaxRate: bc.TaxRate,
		TaxMode: billing.NormalizeMode(bc.TaxMode),
		Ready:   true,
	}
	if cfg.TaxRate < 0 {
		cfg.TaxRate = DefaultTaxRate
	}
	return cfg
}

func settingsKey(tenantID string) string {
	return "billing_config:" + tenantID
}
