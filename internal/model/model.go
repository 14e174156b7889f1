// Package model defines the entities cached locally and exchanged with the
// remote source of truth. Ids are server-assigned opaque strings except for
// PendingOrder, whose ephemeral id is minted locally and never reused.
package model

import "time"

// MenuItem is a sellable item on a tenant's menu.
type MenuItem struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	CategoryID string  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Available  bool    `json:"available"`
}

// Category groups menu items for display.
type Category struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Customer is a tenant's customer record.
type Customer struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// InventoryItem tracks stock for a tenant.
type InventoryItem struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit,omitempty"`
	LowStockAt float64 `json:"low_stock_at,omitempty"`
}

// RestaurantTable is a physical table at a tenant's outlet.
type RestaurantTable struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Seats    int    `json:"seats,omitempty"`
	Occupied bool   `json:"occupied"`
}

// OrderItem is one line of an order: the menu item at the price it was
// sold for (prices are captured at sale time, not re-resolved later).
type OrderItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Order is an authoritative, server-confirmed order.
type Order struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id"`
	TableID    string      `json:"table_id,omitempty"`
	CustomerID string      `json:"customer_id,omitempty"`
	Items      []OrderItem `json:"items"`
	Status     string      `json:"status"`
	GrossTotal float64     `json:"gross_total"`
	Discount   float64     `json:"discount"`
	TaxAmount  float64     `json:"tax_amount"`
	Total      float64     `json:"total"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderDraft is an order as composed at the till, before the server has
// assigned it an id. Drafts are what the pending queue holds.
type OrderDraft struct {
	TenantID   string      `json:"tenant_id"`
	TableID    string      `json:"table_id,omitempty"`
	CustomerID string      `json:"customer_id,omitempty"`
	Items      []OrderItem `json:"items"`
	Discount   float64     `json:"discount"`
	Note       string      `json:"note,omitempty"`
}

// PendingOrder is a draft buffered locally while the remote order-creation
// interface is unreachable. EphemeralID lives in a namespace disjoint from
// server order ids.
type PendingOrder struct {
	EphemeralID int64      `json:"ephemeral_id"`
	Draft       OrderDraft `json:"draft"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BillingConfig is a tenant's tax settings as stored remotely and cached in
// the settings collection.
type BillingConfig struct {
	TenantID string  `json:"tenant_id"`
	TaxRate  float64 `json:"tax_rate"`
	TaxMode  string  `json:"tax_mode"`
}
