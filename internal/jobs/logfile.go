// Package jobs holds the run logic for the scheduled maintenance jobs. Each
// job performs one call against the CRM endpoint and appends plain-text lines
// to its log file; transport failures degrade to a logged line instead of a
// failed run.
package jobs

import (
	"context"
	"os"

	"crm-backend/internal/crm"
)

// Timestamp layouts differ per job family and are part of the log contract.
const (
	HeartbeatLayout = "02/01/2006-15:04:05"
	ReportLayout    = "2006-01-02 15:04:05"
)

// API is the slice of the CRM client the jobs depend on.
type API interface {
	Hello(ctx context.Context) (string, error)
	Customers(ctx context.Context, filter map[string]any) ([]crm.Customer, error)
	Orders(ctx context.Context, filter map[string]any) ([]crm.Order, error)
	UpdateLowStockProducts(ctx context.Context) (crm.UpdateLowStockResult, error)
}

// Append writes one line per entry to an append-only log file.
func Append(path string, lines ...string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
