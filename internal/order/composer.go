// Package order owns the working order being composed: its line
// items, metadata, total, validation and submission to the backend.
package order

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/domain"
)

// State is the client-side lifecycle of the working order. Confirmed
// is terminal; only Reset returns the composer to a fresh Composing.
type State int

const (
	Composing State = iota
	Submitting
	Confirmed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Confirmed:
		return "confirmed"
	default:
		return "composing"
	}
}

// ValidationError reports a working order that fails its invariants.
// It is raised before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// SubmissionError reports a failed order creation. The working order
// is retained so the caller can retry without re-entering data.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "failed to create order: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Service is the backend collaborator for order creation and lookup.
type Service interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error)
	GetOrder(ctx context.Context, id string) (*domain.ConfirmedOrder, error)
}

// Metadata are the order-level form fields. MarkBox and CustomerID
// are required before submission.
type Metadata struct {
	MarkBox    string `json:"mark_box"`
	CustomerID string `json:"customer_id"`
	Notes      string `json:"notes"`
}

// MetadataUpdate is a partial update; nil fields are left untouched.
type MetadataUpdate struct {
	MarkBox    *string `json:"mark_box"`
	CustomerID *string `json:"customer_id"`
	Notes      *string `json:"notes"`
}

// Composer mediates all mutation of the working order. Line items are
// kept in insertion order, which is also the display and submission
// order. Once the order is confirmed the working order is frozen.
type Composer struct {
	client Service

	mu        sync.Mutex
	items     []domain.OrderLineItem
	meta      Metadata
	state     State
	confirmed *domain.ConfirmedOrder
	err       error
}

func NewComposer(client Service) *Composer {
	return &Composer{client: client, state: Composing}
}

// AddLineItem appends a line item snapshot. There is no deduplication:
// adding the same catalog item twice yields two independently
// removable line items.
func (c *Composer) AddLineItem(item domain.OrderLineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Composing {
		return
	}
	c.items = append(c.items, item)
}

// RemoveLineItem removes by position and is a no-op when the index is
// out of bounds.
func (c *Composer) RemoveLineItem(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Composing {
		return
	}
	if index < 0 || index >= len(c.items) {
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// ReplaceLineItem replaces by position with the same bounds
// discipline as RemoveLineItem.
func (c *Composer) ReplaceLineItem(index int, item domain.OrderLineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Composing {
		return
	}
	if index < 0 || index >= len(c.items) {
		return
	}
	c.items[index] = item
}

// SetMetadata merges a partial update; unspecified fields keep their
// current value.
func (c *Composer) SetMetadata(u MetadataUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Composing {
		return
	}
	if u.MarkBox != nil {
		c.meta.MarkBox = *u.MarkBox
	}
	if u.CustomerID != nil {
		c.meta.CustomerID = *u.CustomerID
	}
	if u.Notes != nil {
		c.meta.Notes = *u.Notes
	}
}

// LineItems returns a copy of the working order's line items.
func (c *Composer) LineItems() []domain.OrderLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.OrderLineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Composer) Metadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err reports the last recorded error, nil when none.
func (c *Composer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ConfirmedOrder returns the backend's record after a successful
// submission or lookup, nil before that.
func (c *Composer) ConfirmedOrder() *domain.ConfirmedOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// Total sums price × total stems over the line items. Items without a
// price contribute nothing; an empty order totals zero. This is the
// client-side estimate only — the confirmed order's total_amount is
// authoritative.
func (c *Composer) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		if item.Price == nil {
			continue
		}
		price := decimal.NewFromFloat(*item.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.TotalStems))))
	}
	return total
}

// Submit validates the working order, sends it to the backend and, on
// success, holds the confirmed order and returns its id. Validation
// failures never reach the network. On a backend failure the line
// items and metadata are retained so the caller can retry.
func (c *Composer) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state == Confirmed {
		err := &ValidationError{Reason: "order already submitted"}
		c.err = err
		c.mu.Unlock()
		return "", err
	}
	if c.state == Submitting {
		// one in-flight submission per working order; a second one
		// would create a duplicate backend order
		err := &ValidationError{Reason: "submission already in progress"}
		c.err = err
		c.mu.Unlock()
		return "", err
	}
	if len(c.items) == 0 {
		err := &ValidationError{Reason: "order has no items"}
		c.err = err
		c.mu.Unlock()
		return "", err
	}
	if strings.TrimSpace(c.meta.MarkBox) == "" || strings.TrimSpace(c.meta.CustomerID) == "" {
		err := &ValidationError{Reason: "required field missing"}
		c.err = err
		c.mu.Unlock()
		return "", err
	}

	items := make([]domain.OrderLineItem, len(c.items))
	copy(items, c.items)
	req := domain.CreateOrderRequest{
		MarkBox:    c.meta.MarkBox,
		CustomerID: c.meta.CustomerID,
		Items:      items,
		Notes:      strings.TrimSpace(c.meta.Notes),
	}
	c.state = Submitting
	c.err = nil
	c.mu.Unlock()

	confirmed, err := c.client.CreateOrder(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Composing
		c.err = &SubmissionError{Err: err}
		return "", c.err
	}
	c.confirmed = confirmed
	c.state = Confirmed
	c.err = nil
	return confirmed.ID, nil
}

// LoadConfirmed fetches a confirmed order by id for read-only display.
// It is independent of the working order's state.
func (c *Composer) LoadConfirmed(ctx context.Context, id string) (*domain.ConfirmedOrder, error) {
	confirmed, err := c.client.GetOrder(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		return nil, err
	}
	c.confirmed = confirmed
	c.err = nil
	return confirmed, nil
}

// Reset clears the working order, the confirmed order and any error,
// returning the composer to a fresh Composing state.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.meta = Metadata{}
	c.confirmed = nil
	c.err = nil
	c.state = Composing
}
