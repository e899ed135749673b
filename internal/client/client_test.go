package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryDecodesDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Operation string         `json:"operation"`
			Filter    map[string]any `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "allOrders", req.Operation)
		require.Equal(t, "2025-06-01T00:00:00Z", req.Filter["order_date_gte"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"o1","total_amount":"25.50"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	orders, err := c.Orders(context.Background(), map[string]any{
		"order_date_gte": "2025-06-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "o1", orders[0].ID)
	require.Equal(t, "25.5", orders[0].TotalAmount.String())
}

func TestHello(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":"CRM is alive"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	reply, err := c.Hello(context.Background())
	require.NoError(t, err)
	require.Equal(t, "CRM is alive", reply)
}

func TestMutationDecodesResultDirectly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[{"id":"p1","stock":15}],"success":true,"message":"Successfully updated 1 low-stock products","errors":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.UpdateLowStockProducts(context.Background())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Products, 1)
	require.Equal(t, 15, res.Products[0].Stock)
}

func TestErrorStatusSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown filter key: \"sku\""}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Products(context.Background(), map[string]any{"sku": "W-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown filter key")
}

func TestTimeoutReturnsError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(srv.URL, 50*time.Millisecond)
	_, err := c.Hello(context.Background())
	require.Error(t, err)
}
