package jobs

import (
	"context"
	"fmt"
	"time"
)

// ReminderWindow is how far back the order-reminder job looks.
const ReminderWindow = 7 * 24 * time.Hour

// OrderReminders queries orders placed inside the reminder window and logs
// one reminder line per order. Returns how many reminders were written.
func OrderReminders(ctx context.Context, api API, logPath string, now time.Time) (int, error) {
	since := now.Add(-ReminderWindow)
	ts := now.Format(ReportLayout)

	orders, err := api.Orders(ctx, map[string]any{
		"order_date_gte": since.Format(time.RFC3339),
	})
	if err != nil {
		return 0, Append(logPath, fmt.Sprintf("%s - Order reminders error: %v", ts, err))
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		email := "N/A"
		if o.Customer != nil {
			email = o.Customer.Email
		}
		lines = append(lines, fmt.Sprintf("%s - Order ID: %s, Customer Email: %s", ts, o.ID, email))
	}
	if err := Append(logPath, lines...); err != nil {
		return 0, err
	}
	return len(lines), nil
}
