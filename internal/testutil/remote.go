// Package testutil provides scripted in-memory remote collaborators for
// tests: a DataSource serving fixed rows and an OrderCreator consuming a
// scripted sequence of outcomes.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"tillsync/internal/model"
	"tillsync/internal/remote"
)

// CreateOutcome is one scripted response from ScriptedCreator.
type CreateOutcome struct {
	Order model.Order
	Err   error
}

// CreateCall records one CreateOrder invocation.
type CreateCall struct {
	Draft model.OrderDraft
	Token string
}

// ScriptedCreator implements remote.OrderCreator. Each call consumes the
// next scripted outcome; once the script runs out, calls succeed with a
// generated server id. If Gate is set, every call blocks on it first,
// which lets tests hold a drain in flight; Entered (if set) receives a
// signal just before the call blocks, so tests can wait for that state.
type ScriptedCreator struct {
	mu       sync.Mutex
	outcomes []CreateOutcome
	calls    []CreateCall

	Gate    chan struct{}
	Entered chan struct{}
}

var _ remote.OrderCreator = (*ScriptedCreator)(nil)

// Script appends outcomes to the response script.
func (c *ScriptedCreator) Script(outcomes ...CreateOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcomes...)
}

// Calls returns a copy of the recorded invocations.
func (c *ScriptedCreator) Calls() []CreateCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CreateCall(nil), c.calls...)
}

// CreateOrder implements remote.OrderCreator.
func (c *ScriptedCreator) CreateOrder(ctx context.Context, draft model.OrderDraft, token string) (model.Order, error) {
	if c.Gate != nil {
		if c.Entered != nil {
			c.Entered <- struct{}{}
		}
		select {
		case <-c.Gate:
		case <-ctx.Done():
			return model.Order{}, &remote.RemoteError{
				Kind: remote.KindTransient, Op: "create order", Message: "canceled", Err: ctx.Err()}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, CreateCall{Draft: draft, Token: token})

	if len(c.outcomes) == 0 {
		return model.Order{
			ID:       fmt.Sprintf("srv-%d", len(c.calls)),
			TenantID: draft.TenantID,
			Items:    draft.Items,
			Status:   "confirmed",
		}, nil
	}
	next := c.outcomes[0]
	c.outcomes = c.outcomes[1:]
	return next.Order, next.Err
}

// TransientErr builds a retryable remote failure.
func TransientErr(msg string) error {
	return &remote.RemoteError{Kind: remote.KindTransient, Op: "create order", Message: msg}
}

// RejectedErr builds a permanent remote rejection.
func RejectedErr(msg string) error {
	return &remote.RemoteError{Kind: remote.KindRejected, Op: "create order", Message: msg}
}

// StaticSource implements remote.DataSource over fixed rows, keyed by
// collection then tenant. Set Err to fail every call.
type StaticSource struct {
	mu      sync.Mutex
	rows    map[string]map[string][]json.RawMessage
	writes  []string
	Err     error
}

var _ remote.DataSource = (*StaticSource)(nil)

// SetRows installs the rows served for (collection, tenant).
func (s *StaticSource) SetRows(collection, tenantID string, rows ...json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]map[string][]json.RawMessage{}
	}
	if s.rows[collection] == nil {
		s.rows[collection] = map[string][]json.RawMessage{}
	}
	s.rows[collection][tenantID] = rows
}

// Writes returns a description of every mutation received, in order.
func (s *StaticSource) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// SelectByTenant implements remote.DataSource.
func (s *StaticSource) SelectByTenant(ctx context.Context, collection, tenantID string, filters ...remote.Filter) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.rows[collection][tenantID], nil
}

// Insert implements remote.DataSource.
func (s *StaticSource) Insert(ctx context.Context, collection string, row any) error {
	return s.record("insert", collection)
}

// Update implements remote.DataSource.
func (s *StaticSource) Update(ctx context.Context, collection, id string, row any) error {
	return s.record("update", collection+"/"+id)
}

// Upsert implements remote.DataSource.
func (s *StaticSource) Upsert(ctx context.Context, collection string, row any) error {
	return s.record("upsert", collection)
}

func (s *StaticSource) record(op, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.writes = append(s.writes, op+" "+target)
	return nil
}

// MustJSON marshals v to a raw message, failing the test on error.
func MustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}
