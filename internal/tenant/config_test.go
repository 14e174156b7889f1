package tenant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillsync/internal/billing"
	"tillsync/internal/localstore"
	"tillsync/internal/model"
	"tillsync/internal/remote"
	"tillsync/internal/testutil"
)

func newTestLoader(t *testing.T) (*Loader, *testutil.StaticSource) {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "till.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	source := &testutil.StaticSource{}
	return NewLoader(store, source), source
}

func TestConfig_DefaultsBeforeLoad(t *testing.T) {
	l, _ := newTestLoader(t)

	cfg := l.Config()
	assert.Equal(t, DefaultTaxRate, cfg.TaxRate)
	assert.Equal(t, billing.TaxInclusive, cfg.TaxMode)
	assert.False(t, cfg.Ready, "defaults are not confirmed settings")
}

func TestLoad_AppliesConfirmedSettings(t *testing.T) {
	l, source := newTestLoader(t)
	source.SetRows("tenant_settings", "t1",
		testutil.MustJSON(t, model.BillingConfig{TenantID: "t1", TaxRate: 12, TaxMode: "exclusive"}))

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.tenantID = "t1"
	l.mu.Unlock()
	require.NoError(t, l.loadGen(context.Background(), gen, "t1"))

	cfg := l.Config()
	assert.Equal(t, 12.0, cfg.TaxRate)
	assert.Equal(t, billing.TaxExclusive, cfg.TaxMode)
	assert.True(t, cfg.Ready)
}

func TestLoad_FailureKeepsDefaultsNotReady(t *testing.T) {
	l, source := newTestLoader(t)
	source.Err = testutil.TransientErr("offline")

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()
	err := l.loadGen(context.Background(), gen, "t1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrConfigUnavailable))

	cfg := l.Config()
	assert.Equal(t, DefaultTaxRate, cfg.TaxRate)
	assert.False(t, cfg.Ready)
}

func TestLoad_FallsBackToCachedCopyOffline(t *testing.T) {
	l, source := newTestLoader(t)
	source.SetRows("tenant_settings", "t1",
		testutil.MustJSON(t, model.BillingConfig{TenantID: "t1", TaxRate: 18, TaxMode: "inclusive"}))

	// First load online caches the confirmed settings locally.
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()
	require.NoError(t, l.loadGen(context.Background(), gen, "t1"))

	// Second load with the remote down resolves from the cache.
	source.Err = testutil.TransientErr("offline")
	l.Reset()
	l.mu.Lock()
	l.gen++
	gen = l.gen
	l.tenantID = "t1"
	l.mu.Unlock()
	require.NoError(t, l.loadGen(context.Background(), gen, "t1"))

	cfg := l.Config()
	assert.Equal(t, 18.0, cfg.TaxRate)
	assert.True(t, cfg.Ready)
}

func TestLoad_StaleGenerationDiscarded(t *testing.T) {
	l, source := newTestLoader(t)
	source.SetRows("tenant_settings", "t1",
		testutil.MustJSON(t, model.BillingConfig{TenantID: "t1", TaxRate: 12, TaxMode: "exclusive"}))

	l.mu.Lock()
	l.gen++
	stale := l.gen
	l.mu.Unlock()

	// Tenant changes again before the first load lands.
	l.Reset()

	require.NoError(t, l.loadGen(context.Background(), stale, "t1"))

	cfg := l.Config()
	assert.Equal(t, DefaultTaxRate, cfg.TaxRate, "stale load must not overwrite newer state")
	assert.False(t, cfg.Ready)
}

func TestSetTenant_LoadsInBackground(t *testing.T) {
	l, source := newTestLoader(t)
	source.SetRows("tenant_settings", "t1",
		testutil.MustJSON(t, model.BillingConfig{TenantID: "t1", TaxRate: 12, TaxMode: "exclusive"}))

	l.SetTenant(context.Background(), "t1")
	assert.Equal(t, "t1", l.TenantID())

	require.Eventually(t, func() bool {
		return l.Config().Ready
	}, 2*time.Second, 10*time.Millisecond, "background load should confirm settings")
	assert.Equal(t, 12.0, l.Config().TaxRate)
}

func TestReset_TearsDown(t *testing.T) {
	l, source := newTestLoader(t)
	source.SetRows("tenant_settings", "t1",
		testutil.MustJSON(t, model.BillingConfig{TenantID: "t1", TaxRate: 12, TaxMode: "exclusive"}))

	l.SetTenant(context.Background(), "t1")
	require.Eventually(t, func() bool { return l.Config().Ready }, 2*time.Second, 10*time.Millisecond)

	l.Reset()
	assert.Empty(t, l.TenantID())
	assert.False(t, l.Config().Ready)
	assert.Equal(t, DefaultTaxRate, l.Config().TaxRate)
}

func TestConfirmed_NegativeRateFallsBack(t *testing.T) {
	cfg := confirmed(model.BillingConfig{TaxRate: -3, TaxMode: "exclusive"})
	assert.Equal(t, DefaultTaxRate, cfg.TaxRate)
	assert.Equal(t, billing.TaxExclusive, cfg.TaxMode)
	assert.True(t, cfg.Ready)
}
