package jobs

import (
	"context"
	"fmt"
	"time"
)

// RestockLowStock runs the low-stock restock mutation and logs one line per
// updated product plus the summary message.
func RestockLowStock(ctx context.Context, api API, logPath string, now time.Time) error {
	ts := now.Format(HeartbeatLayout)
	result, err := api.UpdateLowStockProducts(ctx)
	if err != nil {
		return Append(logPath, fmt.Sprintf("%s Restock failed: %v", ts, err))
	}
	lines := make([]string, 0, len(result.Products)+1)
	for _, p := range result.Products {
		lines = append(lines, fmt.Sprintf("%s Restocked %s to %d", ts, p.Name, p.Stock))
	}
	lines = append(lines, fmt.Sprintf("%s %s", ts, result.Message))
	return Append(logPath, lines...)
}
