// Package reconcile drains the pending-order queue into the remote
// order-creation interface and promotes confirmed orders into the local
// orders collection. It also owns the online submission path, which falls
// back to the queue when the remote is unreachable.
package reconcile

import (
	"context"
	"errors"

	"tillsync/internal/localstore"
	"tillsync/internal/model"
	"tillsync/internal/pending"
	"tillsync/internal/remote"
)

// ErrDrainInFlight is returned when a drain is requested while another is
// already running. Benign: the running drain covers the same queue.
var ErrDrainInFlight = errors.New("reconciliation already in flight")

// Report summarizes one drain pass.
type Report struct {
	// Processed counts drafts confirmed remotely and promoted to orders.
	Processed int
	// Remaining is the queue depth after the pass (rejected drafts
	// included; they stay queued for explicit operator attention).
	Remaining int
	// Rejected lists ephemeral ids the remote permanently refused.
	Rejected []int64
	// LastErr is the failure that halted or blemished the pass, nil for
	// a clean drain.
	LastErr error
}

// Reconciler converts queued drafts into authoritative orders. At most
// one drain runs at a time; FIFO order and the write-then-remove promotion
// sequence are what make retries safe.
type Reconciler struct {
	store   *localstore.Store
	queue   *pending.Queue
	creator remote.OrderCreator

	sem chan struct{}
}

// New creates a reconciler over the given store, queue, and remote.
func New(store *localstore.Store, queue *pending.Queue, creator remote.OrderCreator) *Reconciler {
	return &Reconciler{store: store, queue: queue, creator: creator, sem: make(chan struct{}, 1)}
}

// Drain processes the queue strictly FIFO. For each draft it submits to
// the remote with the draft's deterministic idempotency token, then on
// confirmation writes the server order locally BEFORE removing the draft:
// a crash between the two leaves a queue entry whose retry is absorbed by
// the token, never a lost order.
//
// A transient failure halts the pass at the current position — later
// drafts are not attempted, so order-sensitive numbering cannot skip ahead
// of an unresolved earlier draft. A permanent rejection is skipped,
// reported in Rejected, and the pass continues.
//
// Concurrent calls do not stack: if a drain is already in flight, Drain
// returns ErrDrainInFlight immediately.
func (r *Reconciler) Drain(ctx context.Context) (Report, error) {
	select {
	case r.sem <- struct{}{}:
	default:
		return Report{}, ErrDrainInFlight
	}
	defer func() { <-r.sem }()

	entries, err := r.queue.List(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	for _, entry := range entries {
		token := Token(r.store.InstanceID(), entry.EphemeralID)

		order, err := r.creator.CreateOrder(ctx, entry.Draft, token)
		if err != nil {
			rep.LastErr = err
			if remote.IsRejected(err) {
				rep.Rejected = append(rep.Rejected, entry.EphemeralID)
				continue
			}
			// Transient or unclassified: resume here next pass.
			break
		}

		if err := r.promote(ctx, order); err != nil {
			rep.LastErr = err
			break
		}
		if err := r.queue.Remove(ctx, entry.EphemeralID); err != nil {
			rep.LastErr = err
			break
		}
		rep.Processed++
	}

	remaining, err := r.queue.Len(ctx)
	if err != nil {
		rep.LastErr = err
	} else {
		rep.Remaining = remaining
	}
	return rep, nil
}

// SubmitOrder is the order-submission facade. Online, the draft goes
// straight to the remote and mirrors into the orders collection. On a
// transient failure the draft is buffered in the pending queue under the
// id already reserved for it — the retry from the queue reuses the same
// idempotency token, so a create whose response was lost cannot
// duplicate. Queued is true when the draft was buffered rather than
// confirmed.
//
// To the operator both paths are success; a rejection is the only error
// surfaced here.
func (r *Reconciler) SubmitOrder(ctx context.Context, draft model.OrderDraft) (order model.Order, queued bool, err error) {
	id, err := r.queue.Mint(ctx)
	if err != nil {
		return model.Order{}, false, err
	}
	token := Token(r.store.InstanceID(), id)

	order, err = r.creator.CreateOrder(ctx, draft, token)
	if err != nil {
		if remote.IsRejected(err) {
			return model.Order{}, false, err
		}
		if qErr := r.queue.EnqueueMinted(ctx, id, draft); qErr != nil {
			return model.Order{}, false, qErr
		}
		return model.Order{}, true, nil
	}

	if err := r.promote(ctx, order); err != nil {
		return model.Order{}, false, err
	}
	return order, false, nil
}

// promote writes a confirmed order into the orders collection.
func (r *Reconciler) promote(ctx context.Context, order model.Order) error {
	return localstore.PutValue(ctx, r.store,
		localstore.CollectionOrders, order.ID, order.TenantID, order)
}
