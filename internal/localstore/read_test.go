package localstore

import (
	"context"
	"errors"
	"testing"
)

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), CollectionOrders, "missing")
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}

	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("not-found should be wrapped in *StorageError, got %T", err)
	}
}

func TestGetAll_EmptyCollection(t *testing.T) {
	s := createTestStore(t)

	recs, err := s.GetAll(context.Background(), CollectionOrders)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if recs == nil {
		t.Error("GetAll() should return empty slice, not nil")
	}
	if len(recs) != 0 {
		t.Errorf("got %d records from empty collection", len(recs))
	}
}

func TestGetAll_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert out of lexical id order; reads must come back in insertion
	// order, and an upsert must not move a row to the back.
	for _, id := range []string{"z", "a", "m"} {
		if err := s.Put(ctx, CollectionPendingOrders, testRecord(t, id, "", id)); err != nil {
			t.Fatalf("Put(%s) failed: %v", id, err)
		}
	}
	if err := s.Put(ctx, CollectionPendingOrders, testRecord(t, "z", "", "z2")); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	recs, err := s.GetAll(ctx, CollectionPendingOrders)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	want := []string{"z", "a", "m"}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, recs[i].ID, id)
		}
	}
}

func TestGetByTenant_ScopedExactly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seed := []Record{
		testRecord(t, "m1", "t1", "T1 a"),
		testRecord(t, "m2", "t2", "T2 a"),
		testRecord(t, "m3", "t1", "T1 b"),
	}
	if err := s.BulkPut(ctx, CollectionMenuItems, seed); err != nil {
		t.Fatalf("BulkPut() failed: %v", err)
	}

	recs, err := s.GetByTenant(ctx, CollectionMenuItems, "t1")
	if err != nil {
		t.Fatalf("GetByTenant() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records for t1, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.TenantID != "t1" {
			t.Errorf("cross-tenant leakage: got record for tenant %q", rec.TenantID)
		}
	}
}

func TestGetByTenant_NoRowsForUnknownTenant(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, CollectionMenuItems, testRecord(t, "m1", "t1", "x")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	recs, err := s.GetByTenant(ctx, CollectionMenuItems, "nobody")
	if err != nil {
		t.Fatalf("GetByTenant() failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records for unknown tenant, want 0", len(recs))
	}
}

func TestGetByTenant_RejectsUnindexedCollection(t *testing.T) {
	s := createTestStore(t)

	for _, collection := range []string{CollectionPendingOrders, CollectionSettings} {
		_, err := s.GetByTenant(context.Background(), collection, "t1")
		if !errors.Is(err, ErrNoTenantIndex) {
			t.Errorf("%s: expected ErrNoTenantIndex, got %v", collection, err)
		}
	}
}

func TestGetByTenant_UnknownCollection(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetByTenant(context.Background(), "no_such_collection", "t1")
	if !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestValues_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := testRow{ID: "c7", TenantID: "t1", Name: "Asha"}
	if err := PutValue(ctx, s, CollectionCustomers, in.ID, in.TenantID, in); err != nil {
		t.Fatalf("PutValue() failed: %v", err)
	}

	out, err := GetValue[testRow](ctx, s, CollectionCustomers, "c7")
	if err != nil {
		t.Fatalf("GetValue() failed: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
