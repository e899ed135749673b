// Package client is the typed HTTP client the scheduled jobs use to talk to
// the CRM query/mutation endpoint. Every call is bounded by the client
// timeout; failures come back as errors for the job to degrade on, never as
// panics or exits.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crm-backend/internal/crm"
)

type Client struct {
	endpoint string
	http     *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type request struct {
	Operation string         `json:"operation"`
	Filter    map[string]any `json:"filter,omitempty"`
	Args      any            `json:"args,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			return fmt.Errorf("%s: %s", req.Operation, eb.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", req.Operation, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) query(ctx context.Context, op string, filter map[string]any, data any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, request{Operation: op, Filter: filter}, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, data)
}

func (c *Client) Hello(ctx context.Context) (string, error) {
	var s string
	err := c.query(ctx, "hello", nil, &s)
	return s, err
}

func (c *Client) Customers(ctx context.Context, filter map[string]any) ([]crm.Customer, error) {
	var out []crm.Customer
	err := c.query(ctx, "allCustomers", filter, &out)
	return out, err
}

func (c *Client) Products(ctx context.Context, filter map[string]any) ([]crm.Product, error) {
	var out []crm.Product
	err := c.query(ctx, "allProducts", filter, &out)
	return out, err
}

func (c *Client) Orders(ctx context.Context, filter map[string]any) ([]crm.Order, error) {
	var out []crm.Order
	err := c.query(ctx, "allOrders", filter, &out)
	return out, err
}

func (c *Client) UpdateLowStockProducts(ctx context.Context) (crm.UpdateLowStockResult, error) {
	var out crm.UpdateLowStockResult
	err := c.do(ctx, request{Operation: "updateLowStockProducts"}, &out)
	return out, err
}
