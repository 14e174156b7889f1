// Package pending is the offline write-buffer for orders composed while
// the remote order-creation interface is unreachable.
//
// Each draft is keyed by a store-local ephemeral id minted from a counter
// persisted inside the local store, so ids are strictly increasing for the
// life of the store file, survive process restart, and are never reused.
// The id namespace is disjoint from server order ids by construction.
//
// Enqueue performs no network I/O: buffering an order must succeed even
// when the remote collaborator is fully unreachable.
package pending

import (
	"context"
	"strconv"
	"time"

	"tillsync/internal/localstore"
	"tillsync/internal/model"
)

// CounterName is the persisted counter the queue mints ephemeral ids from.
const CounterName = "pending_order_id"

// Queue buffers order drafts in the local store's pending_orders
// collection, oldest first.
type Queue struct {
	store *localstore.Store
}

// New creates a queue over the given store.
func New(store *localstore.Store) *Queue {
	return &Queue{store: store}
}

// Mint reserves the next ephemeral id without enqueuing anything. Used by
// the online submission path so a retried submission after a transient
// failure reuses the same id (and therefore the same idempotency token).
func (q *Queue) Mint(ctx context.Context) (int64, error) {
	return q.store.NextCounter(ctx, CounterName)
}

// Enqueue mints a fresh ephemeral id, buffers the draft under it, and
// returns the id.
func (q *Queue) Enqueue(ctx context.Context, draft model.OrderDraft) (int64, error) {
	id, err := q.Mint(ctx)
	if err != nil {
		return 0, err
	}
	if err := q.EnqueueMinted(ctx, id, draft); err != nil {
		return 0, err
	}
	return id, nil
}

// EnqueueMinted buffers a draft under an id previously reserved with Mint.
func (q *Queue) EnqueueMinted(ctx context.Context, id int64, draft model.OrderDraft) error {
	entry := model.PendingOrder{
		EphemeralID: id,
		Draft:       draft,
		CreatedAt:   time.Now().UTC(),
	}
	return localstore.PutValue(ctx, q.store,
		localstore.CollectionPendingOrders, Key(id), "", entry)
}

// List returns the queued drafts in enqueue order, oldest first. This
// ordering is load-bearing: reconciliation drains strictly FIFO.
func (q *Queue) List(ctx context.Context) ([]model.PendingOrder, error) {
	return localstore.AllValues[model.PendingOrder](ctx, q.store,
		localstore.CollectionPendingOrders)
}

// Len returns the number of queued drafts.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.Count(ctx, localstore.CollectionPendingOrders)
}

// Remove deletes a draft by ephemeral id. Removing an absent id is a
// no-op, not an error.
func (q *Queue) Remove(ctx context.Context, id int64) error {
	return q.store.Delete(ctx, localstore.CollectionPendingOrders, Key(id))
}

// Key renders an ephemeral id as its storage key.
func Key(id int64) string {
	return strconv.FormatInt(id, 10)
}
