package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (collections, records, counters)
// 2 - Added meta table with the store instance id
const currentSchemaVersion = 2

// Collection names for the persisted local layout. New collections may be
// added in later versions; registration at open is additive (INSERT OR
// IGNORE), so an upgraded build never disturbs existing data.
const (
	CollectionMenuItems        = "menu_items"
	CollectionCategories       = "categories"
	CollectionCustomers        = "customers"
	CollectionOrders           = "orders"
	CollectionPendingOrders    = "pending_orders"
	CollectionInventoryItems   = "inventory_items"
	CollectionRestaurantTables = "restaurant_tables"
	CollectionSettings         = "settings"
)

// CollectionDef describes one named collection in the registry.
type CollectionDef struct {
	Name          string
	TenantIndexed bool
}

// DefaultCollections returns the collections every store carries. All are
// tenant-indexed except the pending-order queue and the settings bucket.
func DefaultCollections() []CollectionDef {
	return []CollectionDef{
		{Name: CollectionMenuItems, TenantIndexed: true},
		{Name: CollectionCategories, TenantIndexed: true},
		{Name: CollectionCustomers, TenantIndexed: true},
		{Name: CollectionOrders, TenantIndexed: true},
		{Name: CollectionPendingOrders, TenantIndexed: false},
		{Name: CollectionInventoryItems, TenantIndexed: true},
		{Name: CollectionRestaurantTables, TenantIndexed: true},
		{Name: CollectionSettings, TenantIndexed: false},
	}
}

// Store is the durable, versioned, multi-collection local cache.
type Store struct {
	db         *sql.DB
	instanceID string
}

// Open creates or opens the store file at the given path.
// Applies required pragmas, registers collections, and runs migrations.
//
// Opening a file written by a newer build fails with ErrFutureSchema;
// there is no downgrade path. Open is otherwise idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect store: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY and serializes transactions against the same file.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.loadInstanceID(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InstanceID returns the store's stable instance identifier, minted once
// when the file is first created. It namespaces idempotency tokens so two
// different store files never derive the same token from the same counter.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// SchemaVersion reports the schema version of the opened file.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, storageErr("schema version", "", "", err)
	}
	return v, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist, registers collections,
// and runs migrations. Refuses files from the future before touching them.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("store file has schema version %d, this build supports %d: %w",
			version, currentSchemaVersion, ErrFutureSchema)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	if err := registerCollections(db, DefaultCollections()); err != nil {
		return err
	}

	if err := runMigrations(db, version); err != nil {
		return err
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// registerCollections inserts registry rows additively. Existing rows are
// left untouched, so re-opening never changes an established layout.
func registerCollections(db *sql.DB, defs []CollectionDef) error {
	for _, def := range defs {
		indexed := 0
		if def.TenantIndexed {
			indexed = 1
		}
		if _, err := db.Exec(`
			INSERT INTO collections (name, tenant_indexed) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, def.Name, indexed); err != nil {
			return fmt.Errorf("register collection %s: %w", def.Name, err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB, version int) error {
	if version > 0 && version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}
	return nil
}

// migrateToV2 adds the meta table for stores created before v2.
// New stores get it from schema.sql; CREATE IF NOT EXISTS makes this a
// no-op for them.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// loadInstanceID reads the instance id, minting one on first open.
func (s *Store) loadInstanceID() error {
	if _, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES ('instance_id', ?)
		ON CONFLICT(key) DO NOTHING
	`, uuid.Must(uuid.NewV7()).String()); err != nil {
		return fmt.Errorf("mint instance id: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT value FROM meta WHERE key = 'instance_id'`,
	).Scan(&s.instanceID); err != nil {
		return fmt.Errorf("load instance id: %w", err)
	}
	return nil
}

// NextCounter atomically increments and returns the named persisted
// counter. The first call for a name returns 1. Values are strictly
// increasing for the life of the store file and reset only when the file
// is deleted.
func (s *Store) NextCounter(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return 0, storageErr("next counter", name, "", err)
	}
	return value, nil
}

// CounterValue returns the current value of a named counter, 0 if the
// counter has never been incremented.
func (s *Store) CounterValue(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ?`, name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("counter value", name, "", err)
	}
	return value, nil
}

// tenantIndexed reports whether the collection exists and carries the
// tenant index.
func (s *Store) tenantIndexed(ctx context.Context, collection string) (bool, error) {
	var indexed int
	err := s.db.QueryRowContext(ctx,
		`SELECT tenant_indexed FROM collections WHERE name = ?`, collection,
	).Scan(&indexed)
	if err == sql.ErrNoRows {
		return false, ErrUnknownCollection
	}
	if err != nil {
		return false, err
	}
	return indexed == 1, nil
}
