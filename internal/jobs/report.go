package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Report counts customers and orders and sums order totals into one
// summary line.
func Report(ctx context.Context, api API, logPath string, now time.Time) error {
	ts := now.Format(ReportLayout)

	customers, err := api.Customers(ctx, nil)
	if err != nil {
		return Append(logPath, fmt.Sprintf("%s - Report error: %v", ts, err))
	}
	orders, err := api.Orders(ctx, nil)
	if err != nil {
		return Append(logPath, fmt.Sprintf("%s - Report error: %v", ts, err))
	}

	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
	}
	return Append(logPath, fmt.Sprintf("%s - Report: %d customers, %d orders, %s revenue",
		ts, len(customers), len(orders), revenue.String()))
}
