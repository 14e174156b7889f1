// Package localstore provides SQLite-backed durable storage for the
// offline-first POS cache.
//
// The layout is arena-style: a single records table keyed by
// (collection, id) holds every cached row as a deterministic CBOR payload,
// with a secondary index on (collection, tenant_id) serving tenant-scoped
// reads. A collections registry declares which named collections exist and
// which of them carry the tenant index; tenant-scoped reads against a
// collection without the index are rejected, not silently empty.
//
// Durability and evolution rules:
//   - Schema version is tracked in PRAGMA user_version and only ever
//     increases. Upgrades are additive (new collections, new indexes);
//     existing data is never dropped or truncated by an upgrade.
//   - There is no downgrade path: opening a file written by a newer build
//     fails with ErrFutureSchema.
//   - Named counters (the pending-order ephemeral id among them) are
//     persisted in the same file and survive restart; they reset only when
//     the file itself is deleted.
//
// Every failure surfaces as a *StorageError; nothing is swallowed inside
// the store. Callers decide whether to degrade.
//
// Database configuration mirrors the usual single-writer SQLite setup:
// WAL mode, synchronous=NORMAL, busy_timeout=5000, foreign_keys=ON, and a
// connection pool capped at one connection so concurrent writers serialize
// at transaction granularity.
package localstore
