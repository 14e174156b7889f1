package localstore

import (
	"path/filepath"
	"testing"

	"tillsync/internal/codec"
)

// createTestStore creates a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "till.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type testRow struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

// testRecord builds a record with a CBOR payload carrying id/tenant/name.
func testRecord(t *testing.T, id, tenantID, name string) Record {
	t.Helper()
	payload, err := codec.Marshal(testRow{ID: id, TenantID: tenantID, Name: name})
	if err != nil {
		t.Fatalf("marshal test payload: %v", err)
	}
	return Record{ID: id, TenantID: tenantID, Payload: payload}
}
