// Package api is the HTTP client for the backend order/catalog
// service. The backend's internal processing (pricing, farm dispatch,
// status transitions) is opaque to this frontend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/domain"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 5 * time.Second

// NotFoundError reports an order lookup that matched nothing.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %q not found", e.ID)
}

// Client talks to the backend service under a single base URL, e.g.
// http://localhost:8080/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListFlowers fetches the full catalog.
func (c *Client) ListFlowers(ctx context.Context) ([]domain.CatalogItem, error) {
	url := fmt.Sprintf("%s/flowers", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("flowers: status %d: %s", resp.StatusCode, body)
	}
	var flowers domain.FlowersResponse
	if err := json.NewDecoder(resp.Body).Decode(&flowers); err != nil {
		return nil, err
	}
	return flowers.Flowers, nil
}

// CreateOrder submits a composed order and returns the backend's
// confirmed record.
func (c *Client) CreateOrder(ctx context.Context, orderReq domain.CreateOrderRequest) (*domain.ConfirmedOrder, error) {
	url := fmt.Sprintf("%s/orders", c.baseURL)
	body, err := json.Marshal(orderReq)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orders: create failed: status %d: %s", resp.StatusCode, respBody)
	}
	var order domain.ConfirmedOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a confirmed order by id. A 404 from the backend is
// reported as a NotFoundError.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.ConfirmedOrder, error) {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orders: status %d: %s", resp.StatusCode, body)
	}
	var order domain.ConfirmedOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}
