package localstore

import (
	"context"

	"tillsync/internal/codec"
)

// Typed wrappers over the Record surface. Payloads are encoded with the
// deterministic CBOR codec; decoding failures surface as storage errors
// (a corrupt payload is a local-store fault, not a caller fault).

// PutValue encodes v and upserts it under (collection, id).
func PutValue[T any](ctx context.Context, s *Store, collection, id, tenantID string, v T) error {
	payload, err := codec.Marshal(v)
	if err != nil {
		return storageErr("encode", collection, id, err)
	}
	return s.Put(ctx, collection, Record{ID: id, TenantID: tenantID, Payload: payload})
}

// GetValue reads and decodes the value stored under (collection, id).
func GetValue[T any](ctx context.Context, s *Store, collection, id string) (T, error) {
	var v T
	rec, err := s.Get(ctx, collection, id)
	if err != nil {
		return v, err
	}
	if err := codec.Unmarshal(rec.Payload, &v); err != nil {
		return v, storageErr("decode", collection, id, err)
	}
	return v, nil
}

// AllValues reads and decodes every value in a collection, in insertion
// order.
func AllValues[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	recs, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return decodeRecords[T](recs, collection)
}

// TenantValues reads and decodes one tenant's values from a tenant-indexed
// collection, in insertion order.
func TenantValues[T any](ctx context.Context, s *Store, collection, tenantID string) ([]T, error) {
	recs, err := s.GetByTenant(ctx, collection, tenantID)
	if err != nil {
		return nil, err
	}
	return decodeRecords[T](recs, collection)
}

// EncodeRecord builds a Record from a typed value.
func EncodeRecord[T any](collection, id, tenantID string, v T) (Record, error) {
	payload, err := codec.Marshal(v)
	if err != nil {
		return Record{}, storageErr("encode", collection, id, err)
	}
	return Record{ID: id, TenantID: tenantID, Payload: payload}, nil
}

func decodeRecords[T any](recs []Record, collection string) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := codec.Unmarshal(rec.Payload, &v); err != nil {
			return nil, storageErr("decode", collection, rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
