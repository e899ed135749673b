package jobs

import (
	"context"
	"fmt"
	"time"
)

// Heartbeat probes the hello operation and appends one status line. An
// unreachable endpoint still counts as a completed run.
func Heartbeat(ctx context.Context, api API, logPath string, now time.Time) error {
	ts := now.Format(HeartbeatLayout)
	reply, err := api.Hello(ctx)
	line := fmt.Sprintf("%s CRM is alive (hello: %s)", ts, reply)
	if err != nil {
		line = fmt.Sprintf("%s CRM is alive (endpoint unreachable)", ts)
	}
	return Append(logPath, line)
}
