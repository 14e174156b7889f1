package localstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by point reads for a missing key.
	ErrNotFound = errors.New("record not found")

	// ErrNoTenantIndex is returned when a tenant-scoped read targets a
	// collection that does not carry the tenant index.
	ErrNoTenantIndex = errors.New("collection has no tenant index")

	// ErrUnknownCollection is returned for a collection name absent from
	// the registry.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrFutureSchema is returned by Open when the file's schema version
	// is newer than this build supports.
	ErrFutureSchema = errors.New("store schema is newer than this build")
)

// StorageError wraps any failure inside the store with the operation and
// target that failed. Callers branch on the wrapped sentinel or treat any
// *StorageError as a fatal local-transaction failure.
type StorageError struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *StorageError) Error() string {
	switch {
	case e.Collection != "" && e.Key != "":
		return fmt.Sprintf("localstore: %s %s[%s]: %v", e.Op, e.Collection, e.Key, e.Err)
	case e.Collection != "":
		return fmt.Sprintf("localstore: %s %s: %v", e.Op, e.Collection, e.Err)
	default:
		return fmt.Sprintf("localstore: %s: %v", e.Op, e.Err)
	}
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-record error.
// Uses errors.Is to handle wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func storageErr(op, collection, key string, err error) error {
	return &StorageError{Op: op, Collection: collection, Key: key, Err: err}
}
