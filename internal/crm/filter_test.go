package crm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, src string) FilterDoc {
	t.Helper()
	var d FilterDoc
	require.NoError(t, json.Unmarshal([]byte(src), &d))
	return d
}

func TestCompileCustomerFilter(t *testing.T) {
	alice := &Customer{
		Name:      "Alice Johnson",
		Email:     "alice@example.com",
		Phone:     "+1234567890",
		CreatedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	t.Run("EmptyDocMatchesEverything", func(t *testing.T) {
		pred, err := CompileCustomerFilter(nil)
		require.NoError(t, err)
		require.True(t, pred(alice))
	})

	t.Run("NameContainsIsCaseInsensitive", func(t *testing.T) {
		pred, err := CompileCustomerFilter(doc(t, `{"name":"JOHNSON"}`))
		require.NoError(t, err)
		require.True(t, pred(alice))

		pred, err = CompileCustomerFilter(doc(t, `{"name":"smith"}`))
		require.NoError(t, err)
		require.False(t, pred(alice))
	})

	t.Run("EmailContains", func(t *testing.T) {
		pred, err := CompileCustomerFilter(doc(t, `{"email":"EXAMPLE.COM"}`))
		require.NoError(t, err)
		require.True(t, pred(alice))
	})

	t.Run("CreatedAtRange", func(t *testing.T) {
		pred, err := CompileCustomerFilter(doc(t,
			`{"created_at_gte":"2025-03-01T00:00:00Z","created_at_lte":"2025-03-31T00:00:00Z"}`))
		require.NoError(t, err)
		require.True(t, pred(alice))

		pred, err = CompileCustomerFilter(doc(t, `{"created_at_gte":"2025-04-01T00:00:00Z"}`))
		require.NoError(t, err)
		require.False(t, pred(alice))
	})

	t.Run("PhoneStartsWithAndAliasAgree", func(t *testing.T) {
		for _, key := range []string{"phone_starts_with", "phone_pattern"} {
			pred, err := CompileCustomerFilter(FilterDoc{key: json.RawMessage(`"+1"`)})
			require.NoError(t, err)
			require.True(t, pred(alice), key)
			require.False(t, pred(&Customer{Phone: "555-123-4567"}), key)
		}
	})

	t.Run("FiltersComposeByAND", func(t *testing.T) {
		pred, err := CompileCustomerFilter(doc(t, `{"name":"alice","email":"nomatch"}`))
		require.NoError(t, err)
		require.False(t, pred(alice))
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		_, err := CompileCustomerFilter(doc(t, `{"nickname":"al"}`))
		require.ErrorIs(t, err, ErrUnknownFilterKey)
	})

	t.Run("MalformedValueImposesNoConstraint", func(t *testing.T) {
		pred, err := CompileCustomerFilter(doc(t, `{"created_at_gte":"not-a-date","name":"alice"}`))
		require.NoError(t, err)
		require.True(t, pred(alice))
	})
}

func TestCompileProductFilter(t *testing.T) {
	widget := &Product{Name: "Widget", Price: decimal.RequireFromString("19.99"), Stock: 5}
	gadget := &Product{Name: "Gadget", Price: decimal.RequireFromString("49.50"), Stock: 25}

	t.Run("PriceRange", func(t *testing.T) {
		pred, err := CompileProductFilter(doc(t, `{"price_gte":10,"price_lte":"20.00"}`))
		require.NoError(t, err)
		require.True(t, pred(widget))
		require.False(t, pred(gadget))
	})

	t.Run("StockExactAndRange", func(t *testing.T) {
		pred, err := CompileProductFilter(doc(t, `{"stock":5}`))
		require.NoError(t, err)
		require.True(t, pred(widget))
		require.False(t, pred(gadget))

		pred, err = CompileProductFilter(doc(t, `{"stock_gte":10,"stock_lte":30}`))
		require.NoError(t, err)
		require.False(t, pred(widget))
		require.True(t, pred(gadget))
	})

	t.Run("LowStockSelectsUnderThreshold", func(t *testing.T) {
		pred, err := CompileProductFilter(doc(t, `{"low_stock":true}`))
		require.NoError(t, err)
		require.True(t, pred(widget))
		require.False(t, pred(gadget))
	})

	t.Run("LowStockFalseImposesNoConstraint", func(t *testing.T) {
		pred, err := CompileProductFilter(doc(t, `{"low_stock":false}`))
		require.NoError(t, err)
		require.True(t, pred(widget))
		require.True(t, pred(gadget))
	})

	t.Run("LowStockOverridesStockExact", func(t *testing.T) {
		// stock=25 alone matches only gadget; low_stock=true must win and
		// select exactly the under-threshold set.
		pred, err := CompileProductFilter(doc(t, `{"low_stock":true,"stock":25}`))
		require.NoError(t, err)
		require.True(t, pred(widget))
		require.False(t, pred(gadget))
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		_, err := CompileProductFilter(doc(t, `{"sku":"W-1"}`))
		require.ErrorIs(t, err, ErrUnknownFilterKey)
	})
}

func TestCompileOrderFilter(t *testing.T) {
	customer := &Customer{Name: "Bob Lee", Email: "bob@shop.example"}
	order := &Order{
		ID:       "o1",
		Customer: customer,
		Products: []Product{
			{ID: "p1", Name: "Blue Widget"},
			{ID: "p2", Name: "Red Widget"},
		},
		TotalAmount: decimal.RequireFromString("25.50"),
		OrderDate:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	t.Run("TotalAmountRange", func(t *testing.T) {
		pred, err := CompileOrderFilter(doc(t, `{"total_amount_gte":20,"total_amount_lte":30}`))
		require.NoError(t, err)
		require.True(t, pred(order))

		pred, err = CompileOrderFilter(doc(t, `{"total_amount_gte":"25.51"}`))
		require.NoError(t, err)
		require.False(t, pred(order))
	})

	t.Run("OrderDateRange", func(t *testing.T) {
		pred, err := CompileOrderFilter(doc(t, `{"order_date_gte":"2025-05-25T00:00:00Z"}`))
		require.NoError(t, err)
		require.True(t, pred(order))

		pred, err = CompileOrderFilter(doc(t, `{"order_date_lte":"2025-05-25T00:00:00Z"}`))
		require.NoError(t, err)
		require.False(t, pred(order))
	})

	t.Run("CustomerFields", func(t *testing.T) {
		pred, err := CompileOrderFilter(doc(t, `{"customer_name":"bob","customer_email":"SHOP"}`))
		require.NoError(t, err)
		require.True(t, pred(order))
		require.False(t, pred(&Order{}))
	})

	t.Run("ProductNameMatchesOrderOnce", func(t *testing.T) {
		// Both products contain "widget"; the predicate still answers once
		// per order, so set semantics hold by construction.
		pred, err := CompileOrderFilter(doc(t, `{"product_name":"widget"}`))
		require.NoError(t, err)
		require.True(t, pred(order))
	})

	t.Run("ProductID", func(t *testing.T) {
		pred, err := CompileOrderFilter(doc(t, `{"product_id":"p2"}`))
		require.NoError(t, err)
		require.True(t, pred(order))

		pred, err = CompileOrderFilter(doc(t, `{"product_id":"p9"}`))
		require.NoError(t, err)
		require.False(t, pred(order))
	})

	t.Run("UnknownKeyRejected", func(t *testing.T) {
		_, err := CompileOrderFilter(doc(t, `{"status":"PAID"}`))
		require.ErrorIs(t, err, ErrUnknownFilterKey)
	})
}
