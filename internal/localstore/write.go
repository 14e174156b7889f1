package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Record is one stored row: primary key, optional tenant id, and the
// CBOR-encoded payload. TenantID is empty for rows in non-indexed
// collections.
type Record struct {
	ID       string
	TenantID string
	Payload  []byte
}

const upsertSQL = `
	INSERT INTO records (collection, id, tenant_id, seq, payload)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET
		tenant_id = excluded.tenant_id,
		payload   = excluded.payload
`

// Put upserts a single record by primary key. Idempotent: re-putting the
// same record is a no-op apart from refreshing the payload. The record's
// insertion seq is preserved across upserts so arrival order stays stable.
func (s *Store) Put(ctx context.Context, collection string, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("put", collection, rec.ID, err)
	}
	defer tx.Rollback()

	if err := upsertTx(ctx, tx, collection, rec); err != nil {
		return storageErr("put", collection, rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("put", collection, rec.ID, err)
	}
	return nil
}

// BulkPut upserts every record in a single transaction: either the whole
// batch commits or none of it does. Readers on the same store never observe
// a partial batch (transactions against the file are serialized).
func (s *Store) BulkPut(ctx context.Context, collection string, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("bulk put", collection, "", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := upsertTx(ctx, tx, collection, rec); err != nil {
			return storageErr("bulk put", collection, rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("bulk put", collection, "", err)
	}
	return nil
}

// ReplaceAll atomically replaces the entire contents of a collection with
// the given records. Used for wholesale cache refresh: readers observe the
// old set or the new set, never a mixture.
func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []Record) error {
	return s.replace(ctx, collection, "", recs)
}

// ReplaceTenant atomically replaces all rows belonging to one tenant in a
// tenant-indexed collection. Rows of other tenants are untouched.
func (s *Store) ReplaceTenant(ctx context.Context, collection, tenantID string, recs []Record) error {
	indexed, err := s.tenantIndexed(ctx, collection)
	if err != nil {
		return storageErr("replace tenant", collection, "", err)
	}
	if !indexed {
		return storageErr("replace tenant", collection, "", ErrNoTenantIndex)
	}
	return s.replace(ctx, collection, tenantID, recs)
}

func (s *Store) replace(ctx context.Context, collection, tenantID string, recs []Record) error {
	op := "replace all"
	if tenantID != "" {
		op = "replace tenant"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, collection, "", err)
	}
	defer tx.Rollback()

	if tenantID == "" {
		_, err = tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, collection)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND tenant_id = ?`, collection, tenantID)
	}
	if err != nil {
		return storageErr(op, collection, "", err)
	}

	for _, rec := range recs {
		if err := upsertTx(ctx, tx, collection, rec); err != nil {
			return storageErr(op, collection, rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, collection, "", err)
	}
	return nil
}

// Delete removes a record by primary key. Deleting an absent key is a
// no-op, not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return storageErr("delete", collection, id, err)
	}
	return nil
}

// Clear removes every record in a collection. The collection itself stays
// registered.
func (s *Store) Clear(ctx context.Context, collection string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ?`, collection)
	if err != nil {
		return storageErr("clear", collection, "", err)
	}
	return nil
}

// upsertTx writes one record inside an open transaction, assigning a fresh
// insertion seq from the record_seq counter. Unknown collections fail the
// records.collection foreign key and surface as a storage error.
func upsertTx(ctx context.Context, tx *sql.Tx, collection string, rec Record) error {
	seq, err := nextSeqTx(ctx, tx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertSQL,
		collection, rec.ID, rec.TenantID, seq, rec.Payload); err != nil {
		return err
	}
	return nil
}

func nextSeqTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES ('record_seq', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next record seq: %w", err)
	}
	return seq, nil
}
