package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tillsync/internal/model"
)

// Client is the HTTP implementation of the remote contracts. The hard
// timeout on outbound calls lives here, on the owned http.Client — the
// core above stays responsive regardless of how slow the remote is.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the remote API at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

var _ DataSource = (*Client)(nil)
var _ OrderCreator = (*Client)(nil)
var _ Invoker = (*Client)(nil)

// SelectByTenant implements DataSource.
func (c *Client) SelectByTenant(ctx context.Context, collection, tenantID string, filters ...Filter) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("tenant_id", tenantID)
	for _, f := range filters {
		q.Set(f.Column, f.Value)
	}
	endpoint := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, collection, q.Encode())

	body, err := c.do(ctx, http.MethodGet, "select "+collection, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &RemoteError{Kind: KindRejected, Op: "select " + collection,
			Message: "malformed response body", Err: err}
	}
	return rows, nil
}

// Insert implements DataSource.
func (c *Client) Insert(ctx context.Context, collection string, row any) error {
	endpoint := fmt.Sprintf("%s/rest/%s", c.baseURL, collection)
	_, err := c.do(ctx, http.MethodPost, "insert "+collection, endpoint, row, nil)
	return err
}

// Update implements DataSource.
func (c *Client) Update(ctx context.Context, collection, id string, row any) error {
	endpoint := fmt.Sprintf("%s/rest/%s/%s", c.baseURL, collection, url.PathEscape(id))
	_, err := c.do(ctx, http.MethodPatch, "update "+collection, endpoint, row, nil)
	return err
}

// Upsert implements DataSource.
func (c *Client) Upsert(ctx context.Context, collection string, row any) error {
	endpoint := fmt.Sprintf("%s/rest/%s", c.baseURL, collection)
	_, err := c.do(ctx, http.MethodPut, "upsert "+collection, endpoint, row, nil)
	return err
}

// CreateOrder implements OrderCreator. The idempotency token travels as an
// Idempotency-Key header; the server deduplicates on it.
func (c *Client) CreateOrder(ctx context.Context, draft model.OrderDraft, idempotencyToken string) (model.Order, error) {
	endpoint := c.baseURL + "/orders"
	headers := map[string]string{"Idempotency-Key": idempotencyToken}

	body, err := c.do(ctx, http.MethodPost, "create order", endpoint, draft, headers)
	if err != nil {
		return model.Order{}, err
	}

	var order model.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return model.Order{}, &RemoteError{Kind: KindRejected, Op: "create order",
			Message: "malformed order in response", Err: err}
	}
	if order.ID == "" {
		return model.Order{}, &RemoteError{Kind: KindRejected, Op: "create order",
			Message: "response carried no order id"}
	}
	return order, nil
}

// Invoke implements Invoker.
func (c *Client) Invoke(ctx context.Context, fn string, payload any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/functions/%s", c.baseURL, url.PathEscape(fn))

	body, err := c.do(ctx, http.MethodPost, "invoke "+fn, endpoint, payload, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RemoteError{Kind: KindRejected, Op: "invoke " + fn,
			Message: "malformed envelope", Err: err}
	}
	if !envelope.Success {
		return nil, &RemoteError{Kind: KindRejected, Op: "invoke " + fn, Message: envelope.Error}
	}
	return envelope.Data, nil
}

// do performs one request and classifies the outcome. Transport failures
// and 408/429/5xx are transient; every other non-2xx status is a
// rejection.
func (c *Client) do(ctx context.Context, method, op, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteError{Kind: KindRejected, Op: op, Message: "encode request", Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &RemoteError{Kind: KindRejected, Op: op, Message: "build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: KindTransient, Op: op, Message: "request failed", Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &RemoteError{Kind: KindTransient, Op: op, Message: "read response", Err: err}
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return body, nil
	case res.StatusCode == http.StatusRequestTimeout,
		res.StatusCode == http.StatusTooManyRequests,
		res.StatusCode >= 500:
		return nil, &RemoteError{Kind: KindTransient, Op: op, Status: res.StatusCode,
			Message: trimBody(body)}
	default:
		return nil, &RemoteError{Kind: KindRejected, Op: op, Status: res.StatusCode,
			Message: trimBody(body)}
	}
}

func trimBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
