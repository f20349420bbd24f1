package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/domain"
	"github.com/maxviazov/dolina-flower-order-frontend/internal/order"
)

type fakeService struct {
	mu          sync.Mutex
	createCalls int
	getCalls    int
	lastRequest domain.CreateOrderRequest

	createFn func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error)
	getFn    func(id string) (*domain.ConfirmedOrder, error)
}

func (f *fakeService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastRequest = req
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected CreateOrder call")
	}
	return fn(req)
}

func (f *fakeService) GetOrder(ctx context.Context, id string) (*domain.ConfirmedOrder, error) {
	f.mu.Lock()
	f.getCalls++
	fn := f.getFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected GetOrder call")
	}
	return fn(id)
}

func price(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func lineItem(variety string, stems int, p *float64) domain.OrderLineItem {
	return domain.OrderLineItem{
		Variety:    variety,
		Length:     60,
		BoxCount:   2,
		PackRate:   25,
		TotalStems: stems,
		FarmName:   "Andes Farm",
		TruckName:  "Main Truck",
		Price:      p,
	}
}

func confirmedOrder(id string, req domain.CreateOrderRequest, total float64) *domain.ConfirmedOrder {
	return &domain.ConfirmedOrder{
		ID:          id,
		MarkBox:     req.MarkBox,
		CustomerID:  req.CustomerID,
		Items:       req.Items,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now().UTC(),
		Notes:       req.Notes,
		TotalAmount: total,
	}
}

func readyComposer(svc *fakeService) *order.Composer {
	c := order.NewComposer(svc)
	c.AddLineItem(lineItem("Rose Red", 50, price(5)))
	c.SetMetadata(order.MetadataUpdate{
		MarkBox:    strPtr("VVA"),
		CustomerID: strPtr("abc"),
	})
	return c
}

func TestAddLineItemAllowsDuplicates(t *testing.T) {
	c := order.NewComposer(&fakeService{})
	item := lineItem("Rose Red", 50, price(5))
	c.AddLineItem(item)
	c.AddLineItem(item)

	items := c.LineItems()
	require.Len(t, items, 2)
	assert.Equal(t, items[0], items[1])

	// each copy is independently removable
	c.RemoveLineItem(0)
	assert.Len(t, c.LineItems(), 1)
}

func TestRemoveLineItemBounds(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"negative index is a no-op", -1, 2},
		{"index at length is a no-op", 2, 2},
		{"far out of range is a no-op", 42, 2},
		{"valid index removes", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := order.NewComposer(&fakeService{})
			c.AddLineItem(lineItem("Rose Red", 50, price(5)))
			c.AddLineItem(lineItem("Tulip Yellow", 40, price(2)))

			c.RemoveLineItem(tt.index)
			assert.Len(t, c.LineItems(), tt.want)
		})
	}
}

func TestRemoveLineItemKeepsOrder(t *testing.T) {
	c := order.NewComposer(&fakeService{})
	c.AddLineItem(lineItem("A", 10, nil))
	c.AddLineItem(lineItem("B", 10, nil))
	c.AddLineItem(lineItem("C", 10, nil))

	c.RemoveLineItem(1)

	items := c.LineItems()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Variety)
	assert.Equal(t, "C", items[1].Variety)
}

func TestReplaceLineItem(t *testing.T) {
	c := order.NewComposer(&fakeService{})
	c.AddLineItem(lineItem("Rose Red", 50, price(5)))

	c.ReplaceLineItem(0, lineItem("Tulip Yellow", 40, price(2)))
	items := c.LineItems()
	require.Len(t, items, 1)
	assert.Equal(t, "Tulip Yellow", items[0].Variety)

	// out of range leaves the sequence unchanged
	c.ReplaceLineItem(5, lineItem("Carnation Pink", 30, nil))
	assert.Equal(t, items, c.LineItems())
}

func TestSetMetadataMergesPartially(t *testing.T) {
	c := order.NewComposer(&fakeService{})

	c.SetMetadata(order.MetadataUpdate{MarkBox: strPtr("VVA")})
	c.SetMetadata(order.MetadataUpdate{CustomerID: strPtr("abc")})
	c.SetMetadata(order.MetadataUpdate{Notes: strPtr("deliver friday")})

	meta := c.Metadata()
	assert.Equal(t, "VVA", meta.MarkBox)
	assert.Equal(t, "abc", meta.CustomerID)
	assert.Equal(t, "deliver friday", meta.Notes)

	// a later partial update clears nothing it does not name
	c.SetMetadata(order.MetadataUpdate{Notes: strPtr("")})
	meta = c.Metadata()
	assert.Equal(t, "VVA", meta.MarkBox)
	assert.Equal(t, "", meta.Notes)
}

func TestTotal(t *testing.T) {
	c := order.NewComposer(&fakeService{})
	assert.True(t, c.Total().IsZero(), "empty order totals zero")

	c.AddLineItem(lineItem("Rose Red", 3, price(2)))
	c.AddLineItem(lineItem("Tulip Yellow", 5, nil)) // no price contributes nothing

	assert.True(t, c.Total().Equal(decimal.NewFromInt(6)), "got %s", c.Total())
}

func TestSubmitEmptyOrderFailsWithoutNetworkCall(t *testing.T) {
	svc := &fakeService{}
	c := order.NewComposer(svc)
	c.SetMetadata(order.MetadataUpdate{MarkBox: strPtr("VVA"), CustomerID: strPtr("abc")})

	id, err := c.Submit(context.Background())
	assert.Empty(t, id)

	var validationErr *order.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "order has no items", validationErr.Reason)
	assert.Equal(t, 0, svc.createCalls)
	assert.Equal(t, order.Composing, c.State())
}

func TestSubmitMissingRequiredFieldsFailsWithoutNetworkCall(t *testing.T) {
	tests := []struct {
		name string
		meta order.MetadataUpdate
	}{
		{"no mark box", order.MetadataUpdate{CustomerID: strPtr("abc")}},
		{"no customer id", order.MetadataUpdate{MarkBox: strPtr("VVA")}},
		{"blank mark box", order.MetadataUpdate{MarkBox: strPtr("   "), CustomerID: strPtr("abc")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			c := order.NewComposer(svc)
			c.AddLineItem(lineItem("Rose Red", 50, price(5)))
			c.SetMetadata(tt.meta)

			_, err := c.Submit(context.Background())

			var validationErr *order.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "required field missing", validationErr.Reason)
			assert.Equal(t, 0, svc.createCalls)
		})
	}
}

func TestSubmitSuccess(t *testing.T) {
	svc := &fakeService{
		createFn: func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
			return confirmedOrder("order-1", req, 250), nil
		},
	}
	c := readyComposer(svc)
	c.SetMetadata(order.MetadataUpdate{Notes: strPtr("  deliver friday  ")})

	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)
	assert.Equal(t, order.Confirmed, c.State())
	assert.Equal(t, 1, svc.createCalls)

	// notes are trimmed in the normalized request
	assert.Equal(t, "deliver friday", svc.lastRequest.Notes)
	assert.Equal(t, "VVA", svc.lastRequest.MarkBox)
	assert.Equal(t, "abc", svc.lastRequest.CustomerID)
	require.Len(t, svc.lastRequest.Items, 1)

	confirmed := c.ConfirmedOrder()
	require.NotNil(t, confirmed)
	assert.Equal(t, "order-1", confirmed.ID)
	assert.Equal(t, domain.OrderStatusPending, confirmed.Status)
	// the server total is authoritative, whatever the local estimate was
	assert.Equal(t, float64(250), confirmed.TotalAmount)
}

func TestSubmitFailureRetainsWorkingOrder(t *testing.T) {
	fail := true
	svc := &fakeService{
		createFn: func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
			if fail {
				return nil, errors.New("backend unavailable")
			}
			return confirmedOrder("order-2", req, 250), nil
		},
	}
	c := readyComposer(svc)

	_, err := c.Submit(context.Background())
	var submissionErr *order.SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, order.Composing, c.State())

	// items and metadata are preserved so the caller can retry
	assert.Len(t, c.LineItems(), 1)
	assert.Equal(t, "VVA", c.Metadata().MarkBox)

	fail = false
	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "order-2", id)
	assert.Equal(t, 2, svc.createCalls)
}

func TestSubmitWhileInFlightMakesNoSecondNetworkCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeService{
		createFn: func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
			close(started)
			<-release
			return confirmedOrder("order-1", req, 250), nil
		},
	}
	c := readyComposer(svc)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-started

	// a second submit while the first is on the wire is rejected
	// before it can reach the backend
	_, err := c.Submit(context.Background())
	var validationErr *order.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "submission already in progress", validationErr.Reason)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, order.Confirmed, c.State())
	assert.Equal(t, 1, svc.createCalls)
}

func TestConfirmedIsTerminal(t *testing.T) {
	svc := &fakeService{
		createFn: func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
			return confirmedOrder("order-1", req, 250), nil
		},
	}
	c := readyComposer(svc)
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	// the working order is frozen after confirmation
	c.AddLineItem(lineItem("Tulip Yellow", 40, nil))
	c.RemoveLineItem(0)
	c.SetMetadata(order.MetadataUpdate{MarkBox: strPtr("changed")})
	assert.Len(t, c.LineItems(), 1)
	assert.Equal(t, "VVA", c.Metadata().MarkBox)

	// a second submit never reaches the network
	_, err = c.Submit(context.Background())
	var validationErr *order.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, svc.createCalls)
}

func TestLoadConfirmed(t *testing.T) {
	svc := &fakeService{
		getFn: func(id string) (*domain.ConfirmedOrder, error) {
			return &domain.ConfirmedOrder{ID: id, Status: domain.OrderStatusProcessing, TotalAmount: 99}, nil
		},
	}
	c := order.NewComposer(svc)

	confirmed, err := c.LoadConfirmed(context.Background(), "order-7")
	require.NoError(t, err)
	assert.Equal(t, "order-7", confirmed.ID)
	assert.Equal(t, confirmed, c.ConfirmedOrder())
	assert.Equal(t, 1, svc.getCalls)

	// independent of the working order state
	assert.Equal(t, order.Composing, c.State())
	assert.Empty(t, c.LineItems())
}

func TestLoadConfirmedFailureIsRecorded(t *testing.T) {
	svc := &fakeService{
		getFn: func(id string) (*domain.ConfirmedOrder, error) {
			return nil, errors.New("order \"order-9\" not found")
		},
	}
	c := order.NewComposer(svc)

	_, err := c.LoadConfirmed(context.Background(), "order-9")
	require.Error(t, err)
	assert.Error(t, c.Err())
	assert.Nil(t, c.ConfirmedOrder())
}

func TestReset(t *testing.T) {
	svc := &fakeService{
		createFn: func(req domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
			return confirmedOrder("order-1", req, 250), nil
		},
	}
	c := readyComposer(svc)
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	c.Reset()

	assert.Equal(t, order.Composing, c.State())
	assert.Empty(t, c.LineItems())
	assert.Equal(t, order.Metadata{}, c.Metadata())
	assert.Nil(t, c.ConfirmedOrder())
	assert.NoError(t, c.Err())
	assert.True(t, c.Total().IsZero())
}
