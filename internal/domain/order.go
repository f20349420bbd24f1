package domain

import "time"

// OrderLineItem is an order-scoped snapshot of a catalog item's
// commercial fields plus an optional free-text comment. A line item is
// a value copy: a later catalog refresh never alters line items
// already added to an order.
type OrderLineItem struct {
	Variety    string   `json:"variety"`
	Length     int      `json:"length"`
	BoxCount   int      `json:"box_count"`
	PackRate   int      `json:"pack_rate"`
	TotalStems int      `json:"total_stems"`
	FarmName   string   `json:"farm_name"`
	TruckName  string   `json:"truck_name"`
	Comments   string   `json:"comments,omitempty"`
	Price      *float64 `json:"price,omitempty"`
}

// NewLineItem copies the commercial fields of a catalog item into a
// line item. The price is deep-copied so the snapshot cannot alias a
// catalog that is later replaced.
func NewLineItem(f CatalogItem, comments string) OrderLineItem {
	item := OrderLineItem{
		Variety:    f.Variety,
		Length:     f.Length,
		BoxCount:   f.BoxCount,
		PackRate:   f.PackRate,
		TotalStems: f.TotalStems,
		FarmName:   f.FarmName,
		TruckName:  f.TruckName,
		Comments:   comments,
	}
	if f.Price != nil {
		p := *f.Price
		item.Price = &p
	}
	return item
}

// OrderStatus is the backend's processing state for a confirmed order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFarmOrder  OrderStatus = "farm_order"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	MarkBox    string          `json:"mark_box"`
	CustomerID string          `json:"customer_id"`
	Items      []OrderLineItem `json:"items"`
	Notes      string          `json:"notes,omitempty"`
}

// ConfirmedOrder is the backend's authoritative record of a submitted
// order. total_amount is server-computed and is never reconciled back
// into a working order; prices may be finalized server-side after
// submission.
type ConfirmedOrder struct {
	ID          string          `json:"id"`
	MarkBox     string          `json:"mark_box"`
	CustomerID  string          `json:"customer_id"`
	Items       []OrderLineItem `json:"items"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	FarmOrderID string          `json:"farm_order_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	TotalAmount float64         `json:"total_amount"`
}
