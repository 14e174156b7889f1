// Package remote defines the contracts for the remote source of truth:
// per-collection filtered reads and writes, idempotent order creation, and
// privileged function invocation. The core depends only on these
// interfaces; Client is the HTTP implementation.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tillsync/internal/model"
)

// ErrorKind classifies remote failures so callers can branch on failure
// class instead of message strings.
type ErrorKind string

const (
	// KindTransient marks retryable failures: transport errors, timeouts,
	// remote overload. Queue draining halts at the current position.
	KindTransient ErrorKind = "TRANSIENT"

	// KindRejected marks permanent failures: the remote understood the
	// request and refused it. Draining skips the entry and flags it.
	KindRejected ErrorKind = "REJECTED"
)

// RemoteError is a classified failure from a remote collaborator.
type RemoteError struct {
	Kind    ErrorKind
	Op      string
	Status  int // HTTP status when applicable, 0 otherwise
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: http %d: %s", e.Kind, e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable remote failure.
// Uses errors.As to handle wrapped errors.
func IsTransient(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == KindTransient
	}
	return false
}

// IsRejected reports whether the remote permanently rejected the request.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == KindRejected
	}
	return false
}

// ErrConfigUnavailable signals that tenant billing settings could not be
// fetched; consumers fall back to the documented defaults and stay
// not-ready.
var ErrConfigUnavailable = errors.New("billing config unavailable")

// Filter is an additional equality constraint on a filtered read.
type Filter struct {
	Column string
	Value  string
}

// DataSource is the per-collection read/write surface of the remote store.
// Rows travel as raw JSON; callers decode into their model types.
type DataSource interface {
	// SelectByTenant returns all rows of a collection belonging to the
	// tenant, optionally narrowed by equality filters.
	SelectByTenant(ctx context.Context, collection, tenantID string, filters ...Filter) ([]json.RawMessage, error)

	Insert(ctx context.Context, collection string, row any) error
	Update(ctx context.Context, collection, id string, row any) error
	Upsert(ctx context.Context, collection string, row any) error
}

// OrderCreator accepts an order draft plus an idempotency token and
// returns the confirmed order with its server-assigned id. A retried
// submission carrying the same token collapses to a single remote order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft model.OrderDraft, idempotencyToken string) (model.Order, error)
}

// Invoker calls privileged server-side functions. The response envelope is
// {success, data | error}; a false success surfaces as a rejected error.
type Invoker interface {
	Invoke(ctx context.Context, fn string, payload any) (json.RawMessage, error)
}
