package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"crm-backend/internal/crm"
)

type fakeAPI struct {
	helloReply string
	helloErr   error

	customers []crm.Customer
	orders    []crm.Order
	listErr   error

	lastOrderFilter map[string]any

	restock    crm.UpdateLowStockResult
	restockErr error
}

func (f *fakeAPI) Hello(ctx context.Context) (string, error) {
	return f.helloReply, f.helloErr
}

func (f *fakeAPI) Customers(ctx context.Context, filter map[string]any) ([]crm.Customer, error) {
	return f.customers, f.listErr
}

func (f *fakeAPI) Orders(ctx context.Context, filter map[string]any) ([]crm.Order, error) {
	f.lastOrderFilter = filter
	return f.orders, f.listErr
}

func (f *fakeAPI) UpdateLowStockProducts(ctx context.Context) (crm.UpdateLowStockResult, error) {
	return f.restock, f.restockErr
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

var testNow = time.Date(2025, 6, 15, 14, 30, 5, 0, time.UTC)

func TestHeartbeat(t *testing.T) {
	t.Run("LogsReply", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heartbeat.txt")
		api := &fakeAPI{helloReply: crm.HelloReply}
		require.NoError(t, Heartbeat(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Len(t, lines, 1)
		require.Equal(t, "15/06/2025-14:30:05 CRM is alive (hello: CRM is alive)", lines[0])
	})

	t.Run("DegradesWhenUnreachable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heartbeat.txt")
		api := &fakeAPI{helloErr: errors.New("connection refused")}
		require.NoError(t, Heartbeat(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Equal(t, "15/06/2025-14:30:05 CRM is alive (endpoint unreachable)", lines[0])
	})

	t.Run("AppendsAcrossRuns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heartbeat.txt")
		api := &fakeAPI{helloReply: crm.HelloReply}
		require.NoError(t, Heartbeat(context.Background(), api, path, testNow))
		require.NoError(t, Heartbeat(context.Background(), api, path, testNow.Add(5*time.Minute)))

		lines := readLines(t, path)
		require.Len(t, lines, 2)
		require.True(t, strings.HasPrefix(lines[1], "15/06/2025-14:35:05"))
	})
}

func TestRestockLowStock(t *testing.T) {
	t.Run("LogsEachProductAndSummary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "restock.txt")
		api := &fakeAPI{restock: crm.UpdateLowStockResult{
			Products: []crm.Product{
				{Name: "Widget", Stock: 15},
				{Name: "Gadget", Stock: 12},
			},
			Success: true,
			Message: "Successfully updated 2 low-stock products",
		}}
		require.NoError(t, RestockLowStock(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Len(t, lines, 3)
		require.Equal(t, "15/06/2025-14:30:05 Restocked Widget to 15", lines[0])
		require.Equal(t, "15/06/2025-14:30:05 Restocked Gadget to 12", lines[1])
		require.Equal(t, "15/06/2025-14:30:05 Successfully updated 2 low-stock products", lines[2])
	})

	t.Run("DegradesOnTransportFailure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "restock.txt")
		api := &fakeAPI{restockErr: errors.New("connection refused")}
		require.NoError(t, RestockLowStock(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Len(t, lines, 1)
		require.Contains(t, lines[0], "Restock failed")
	})
}

func TestOrderReminders(t *testing.T) {
	t.Run("QueriesSevenDayWindowAndLogsEachOrder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reminders.txt")
		api := &fakeAPI{orders: []crm.Order{
			{ID: "o1", Customer: &crm.Customer{Email: "alice@example.com"}},
			{ID: "o2", Customer: &crm.Customer{Email: "bob@example.com"}},
		}}
		n, err := OrderReminders(context.Background(), api, path, testNow)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		require.Equal(t,
			testNow.Add(-7*24*time.Hour).Format(time.RFC3339),
			api.lastOrderFilter["order_date_gte"])

		lines := readLines(t, path)
		require.Equal(t, "2025-06-15 14:30:05 - Order ID: o1, Customer Email: alice@example.com", lines[0])
		require.Equal(t, "2025-06-15 14:30:05 - Order ID: o2, Customer Email: bob@example.com", lines[1])
	})

	t.Run("MissingCustomerLogsPlaceholder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reminders.txt")
		api := &fakeAPI{orders: []crm.Order{{ID: "o1"}}}
		_, err := OrderReminders(context.Background(), api, path, testNow)
		require.NoError(t, err)

		lines := readLines(t, path)
		require.Contains(t, lines[0], "Customer Email: N/A")
	})

	t.Run("DegradesOnTransportFailure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reminders.txt")
		api := &fakeAPI{listErr: errors.New("connection refused")}
		n, err := OrderReminders(context.Background(), api, path, testNow)
		require.NoError(t, err)
		require.Zero(t, n)

		lines := readLines(t, path)
		require.Contains(t, lines[0], "Order reminders error")
	})
}

func TestReport(t *testing.T) {
	t.Run("SummarizesCountsAndRevenue", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		api := &fakeAPI{
			customers: []crm.Customer{{ID: "c1"}, {ID: "c2"}},
			orders: []crm.Order{
				{ID: "o1", TotalAmount: decimal.RequireFromString("25.50")},
				{ID: "o2", TotalAmount: decimal.RequireFromString("10.00")},
			},
		}
		require.NoError(t, Report(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Equal(t, "2025-06-15 14:30:05 - Report: 2 customers, 2 orders, 35.5 revenue", lines[0])
	})

	t.Run("DegradesOnTransportFailure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		api := &fakeAPI{listErr: errors.New("connection refused")}
		require.NoError(t, Report(context.Background(), api, path, testNow))

		lines := readLines(t, path)
		require.Contains(t, lines[0], "Report error")
	})
}
