package localstore

import (
	"context"
	"database/sql"
)

// Get returns the record stored under (collection, id).
// Returns a *StorageError wrapping ErrNotFound for a missing key.
func (s *Store) Get(ctx context.Context, collection, id string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, payload FROM records
		WHERE collection = ? AND id = ?
	`, collection, id).Scan(&rec.ID, &rec.TenantID, &rec.Payload)
	if err == sql.ErrNoRows {
		return Record{}, storageErr("get", collection, id, ErrNotFound)
	}
	if err != nil {
		return Record{}, storageErr("get", collection, id, err)
	}
	return rec, nil
}

// GetAll returns every record in a collection in insertion order (seq
// ascending, id as tiebreaker). Returns an empty slice, not nil, for an
// empty collection.
func (s *Store) GetAll(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, payload FROM records
		WHERE collection = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, collection)
	if err != nil {
		return nil, storageErr("get all", collection, "", err)
	}
	return scanRecords(rows, "get all", collection)
}

// GetByTenant returns the records belonging to one tenant, in insertion
// order. The collection must carry the tenant index: collections without it
// fail with ErrNoTenantIndex rather than returning a silently empty result.
func (s *Store) GetByTenant(ctx context.Context, collection, tenantID string) ([]Record, error) {
	indexed, err := s.tenantIndexed(ctx, collection)
	if err != nil {
		return nil, storageErr("get by tenant", collection, "", err)
	}
	if !indexed {
		return nil, storageErr("get by tenant", collection, "", ErrNoTenantIndex)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, payload FROM records
		WHERE collection = ? AND tenant_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, collection, tenantID)
	if err != nil {
		return nil, storageErr("get by tenant", collection, "", err)
	}
	return scanRecords(rows, "get by tenant", collection)
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return 0, storageErr("count", collection, "", err)
	}
	return n, nil
}

// Collections returns the registered collection definitions, sorted by name.
func (s *Store) Collections(ctx context.Context) ([]CollectionDef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, tenant_indexed FROM collections ORDER BY name ASC`)
	if err != nil {
		return nil, storageErr("collections", "", "", err)
	}
	defer rows.Close()

	var defs []CollectionDef
	for rows.Next() {
		var def CollectionDef
		var indexed int
		if err := rows.Scan(&def.Name, &indexed); err != nil {
			return nil, storageErr("collections", "", "", err)
		}
		def.TenantIndexed = indexed == 1
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("collections", "", "", err)
	}
	return defs, nil
}

func scanRecords(rows *sql.Rows, op, collection string) ([]Record, error) {
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.Payload); err != nil {
			return nil, storageErr(op, collection, "", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, collection, "", err)
	}
	return recs, nil
}
