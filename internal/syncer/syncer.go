// Package syncer refreshes the read-mostly cache collections from the
// remote source of truth. Refreshes are wholesale per tenant and atomic:
// readers of the local store observe the old rows or the new rows, never
// a mixture.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"tillsync/internal/localstore"
	"tillsync/internal/model"
	"tillsync/internal/remote"
)

// RefreshableCollections are the cache collections RefreshAll covers, in
// refresh order.
var RefreshableCollections = []string{
	localstore.CollectionCategories,
	localstore.CollectionMenuItems,
	localstore.CollectionCustomers,
	localstore.CollectionInventoryItems,
	localstore.CollectionRestaurantTables,
}

// Syncer mirrors remote rows into the local store.
type Syncer struct {
	store  *localstore.Store
	source remote.DataSource
}

// New creates a syncer over the given store and remote source.
func New(store *localstore.Store, source remote.DataSource) *Syncer {
	return &Syncer{store: store, source: source}
}

// RefreshCollection replaces one tenant's rows in one collection with the
// remote contents. Returns the number of rows cached.
func (s *Syncer) RefreshCollection(ctx context.Context, collection, tenantID string) (int, error) {
	rows, err := s.source.SelectByTenant(ctx, collection, tenantID)
	if err != nil {
		return 0, fmt.Errorf("refresh %s: %w", collection, err)
	}

	recs := make([]localstore.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(collection, row)
		if err != nil {
			return 0, fmt.Errorf("refresh %s: %w", collection, err)
		}
		recs = append(recs, rec)
	}

	if err := s.store.ReplaceTenant(ctx, collection, tenantID, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// RefreshAll refreshes every read-mostly collection for a tenant and
// returns per-collection row counts. Stops at the first failure so a
// half-refreshed tenant is visible to the caller; each collection that
// did refresh was replaced atomically.
func (s *Syncer) RefreshAll(ctx context.Context, tenantID string) (map[string]int, error) {
	counts := make(map[string]int, len(RefreshableCollections))
	for _, collection := range RefreshableCollections {
		n, err := s.RefreshCollection(ctx, collection, tenantID)
		if err != nil {
			return counts, err
		}
		counts[collection] = n
	}
	return counts, nil
}

// Upsert writes one row to the remote and mirrors it into the local cache
// on confirmation, remote first so the cache never leads the truth.
func (s *Syncer) Upsert(ctx context.Context, collection string, row json.RawMessage) error {
	rec, err := decodeRow(collection, row)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	if err := s.source.Upsert(ctx, collection, row); err != nil {
		return err
	}
	return s.store.Put(ctx, collection, rec)
}

// decodeRow validates a remote row against its collection's model and
// re-encodes it as a store record keyed by the row's own id and tenant.
func decodeRow(collection string, row json.RawMessage) (localstore.Record, error) {
	switch collection {
	case localstore.CollectionMenuItems:
		return rowRecord[model.MenuItem](collection, row, func(v model.MenuItem) (string, string) {
			return v.ID, v.TenantID
		})
	case localstore.CollectionCategories:
		return rowRecord[model.Category](collection, row, func(v model.Category) (string, string) {
			return v.ID, v.TenantID
		})
	case localstore.CollectionCustomers:
		return rowRecord[model.Customer](collection, row, func(v model.Customer) (string, string) {
			return v.ID, v.TenantID
		})
	case localstore.CollectionInventoryItems:
		return rowRecord[model.InventoryItem](collection, row, func(v model.InventoryItem) (string, string) {
			return v.ID, v.TenantID
		})
	case localstore.CollectionRestaurantTables:
		return rowRecord[model.RestaurantTable](collection, row, func(v model.RestaurantTable) (string, string) {
			return v.ID, v.TenantID
		})
	case localstore.CollectionOrders:
		return rowRecord[model.Order](collection, row, func(v model.Order) (string, string) {
			return v.ID, v.TenantID
		})
	default:
		return localstore.Record{}, fmt.Errorf("collection %s is not refreshable", collection)
	}
}

func rowRecord[T any](collection string, row json.RawMessage, key func(T) (string, string)) (localstore.Record, error) {
	var v T
	if err := json.Unmarshal(row, &v); err != nil {
		return localstore.Record{}, fmt.Errorf("decode row: %w", err)
	}
	id, tenantID := key(v)
	if id == "" {
		return localstore.Record{}, fmt.Errorf("row has no id")
	}
	return localstore.EncodeRecord(collection, id, tenantID, v)
}
