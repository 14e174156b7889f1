package syncer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillsync/internal/localstore"
	"tillsync/internal/model"
	"tillsync/internal/testutil"
)

func newTestSyncer(t *testing.T) (*Syncer, *localstore.Store, *testutil.StaticSource) {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "till.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	source := &testutil.StaticSource{}
	return New(store, source), store, source
}

func TestRefreshCollection_ReplacesTenantRows(t *testing.T) {
	s, store, source := newTestSyncer(t)
	ctx := context.Background()

	// Stale cache: one row that the remote no longer has, plus a row
	// belonging to another tenant that must survive the refresh.
	require.NoError(t, localstore.PutValue(ctx, store, localstore.CollectionMenuItems,
		"m-old", "t1", model.MenuItem{ID: "m-old", TenantID: "t1", Name: "Gone"}))
	require.NoError(t, localstore.PutValue(ctx, store, localstore.CollectionMenuItems,
		"m-other", "t2", model.MenuItem{ID: "m-other", TenantID: "t2", Name: "Other tenant"}))

	source.SetRows(localstore.CollectionMenuItems, "t1",
		testutil.MustJSON(t, model.MenuItem{ID: "m1", TenantID: "t1", Name: "Dosa", Price: 80}),
		testutil.MustJSON(t, model.MenuItem{ID: "m2", TenantID: "t1", Name: "Idli", Price: 40}),
	)

	n, err := s.RefreshCollection(ctx, localstore.CollectionMenuItems, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t1, err := localstore.TenantValues[model.MenuItem](ctx, store, localstore.CollectionMenuItems, "t1")
	require.NoError(t, err)
	require.Len(t, t1, 2)
	assert.Equal(t, "m1", t1[0].ID)
	assert.Equal(t, "m2", t1[1].ID)

	t2, err := localstore.TenantValues[model.MenuItem](ctx, store, localstore.CollectionMenuItems, "t2")
	require.NoError(t, err)
	require.Len(t, t2, 1, "other tenant's rows must survive")
}

func TestRefreshCollection_RemoteFailureLeavesCacheIntact(t *testing.T) {
	s, store, source := newTestSyncer(t)
	ctx := context.Background()

	require.NoError(t, localstore.PutValue(ctx, store, localstore.CollectionCustomers,
		"c1", "t1", model.Customer{ID: "c1", TenantID: "t1", Name: "Asha"}))
	source.Err = testutil.TransientErr("offline")

	_, err := s.RefreshCollection(ctx, localstore.CollectionCustomers, "t1")
	require.Error(t, err)

	rows, lerr := localstore.TenantValues[model.Customer](ctx, store, localstore.CollectionCustomers, "t1")
	require.NoError(t, lerr)
	assert.Len(t, rows, 1, "failed refresh must not clear the cache")
}

func TestRefreshAll_CoversReadMostlyCollections(t *testing.T) {
	s, _, source := newTestSyncer(t)
	ctx := context.Background()

	source.SetRows(localstore.CollectionMenuItems, "t1",
		testutil.MustJSON(t, model.MenuItem{ID: "m1", TenantID: "t1", Name: "Dosa"}))
	source.SetRows(localstore.CollectionRestaurantTables, "t1",
		testutil.MustJSON(t, model.RestaurantTable{ID: "tab1", TenantID: "t1", Name: "T1"}))

	counts, err := s.RefreshAll(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, counts, len(RefreshableCollections))
	assert.Equal(t, 1, counts[localstore.CollectionMenuItems])
	assert.Equal(t, 1, counts[localstore.CollectionRestaurantTables])
	assert.Equal(t, 0, counts[localstore.CollectionCustomers])
}

func TestRefreshCollection_RejectsUnknownCollection(t *testing.T) {
	s, _, _ := newTestSyncer(t)

	_, err := s.RefreshCollection(context.Background(), "settings", "t1")
	require.Error(t, err)
}

func TestUpsert_RemoteFirstThenLocal(t *testing.T) {
	s, store, source := newTestSyncer(t)
	ctx := context.Background()

	row := testutil.MustJSON(t, model.Customer{ID: "c9", TenantID: "t1", Name: "Ravi"})
	require.NoError(t, s.Upsert(ctx, localstore.CollectionCustomers, row))

	assert.Equal(t, []string{"upsert customers"}, source.Writes())
	got, err := localstore.GetValue[model.Customer](ctx, store, localstore.CollectionCustomers, "c9")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Name)
}

func TestUpsert_RemoteFailureDoesNotTouchCache(t *testing.T) {
	s, store, source := newTestSyncer(t)
	ctx := context.Background()
	source.Err = testutil.TransientErr("offline")

	row := testutil.MustJSON(t, model.Customer{ID: "c9", TenantID: "t1", Name: "Ravi"})
	require.Error(t, s.Upsert(ctx, localstore.CollectionCustomers, row))

	_, err := localstore.GetValue[model.Customer](ctx, store, localstore.CollectionCustomers, "c9")
	assert.True(t, localstore.IsNotFound(err), "cache must not lead the remote truth")
}
