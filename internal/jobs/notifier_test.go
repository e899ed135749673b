package jobs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crm-backend/internal/crm"
)

func eventMessage(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	env := crm.Envelope{
		EventID:      "ev-1",
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "crm-api",
		Payload:      body,
	}
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return kafkago.Message{Value: value}
}

func TestNotifierHandleEvent(t *testing.T) {
	t.Run("OrderCreatedLine", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notifications.txt")
		n := &Notifier{LogPath: path, Log: zap.NewNop()}

		m := eventMessage(t, crm.EventOrderCreated, crm.OrderCreatedPayload{
			OrderID:       "o1",
			CustomerEmail: "alice@example.com",
			TotalAmount:   decimal.RequireFromString("25.50"),
		})
		require.NoError(t, n.HandleEvent(context.Background(), m))

		lines := readLines(t, path)
		require.Len(t, lines, 1)
		require.Contains(t, lines[0], "New order o1 for alice@example.com totaling 25.5")
	})

	t.Run("CustomerCreatedLine", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notifications.txt")
		n := &Notifier{LogPath: path, Log: zap.NewNop()}

		m := eventMessage(t, crm.EventCustomerCreated, crm.CustomerCreatedPayload{
			CustomerID: "c1", Email: "bob@example.com",
		})
		require.NoError(t, n.HandleEvent(context.Background(), m))
		require.Contains(t, readLines(t, path)[0], "New customer bob@example.com")
	})

	t.Run("MalformedEnvelopeCommittedWithoutLine", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notifications.txt")
		n := &Notifier{LogPath: path, Log: zap.NewNop()}

		require.NoError(t, n.HandleEvent(context.Background(), kafkago.Message{Value: []byte("not json")}))
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("UnknownEventTypeIgnored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notifications.txt")
		n := &Notifier{LogPath: path, Log: zap.NewNop()}

		m := eventMessage(t, "SomethingElse", map[string]any{})
		require.NoError(t, n.HandleEvent(context.Background(), m))
	})
}
