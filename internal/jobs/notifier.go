package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"crm-backend/internal/crm"
	kafkax "crm-backend/internal/kafka"
	"crm-backend/internal/redisx"
)

// Notifier turns CRM events into notification lines. Events are deduplicated
// by event id through redis so redelivered messages write one line only.
type Notifier struct {
	Redis   *redis.Client
	LogPath string
	Log     *zap.Logger
}

// HandleEvent is wired as the Kafka consumer handler.
func (n *Notifier) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env crm.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		// malformed message, commit and move on
		n.Log.Warn("notifier: bad envelope", zap.Error(err))
		return nil
	}

	if n.Redis != nil {
		fresh, err := redisx.MarkOnce(ctx, n.Redis, fmt.Sprintf(redisx.KeyDedup, env.EventID), redisx.TTLDedup)
		if err == nil && !fresh {
			return nil
		}
	}

	summary, err := summarize(env)
	if err != nil {
		n.Log.Warn("notifier: bad payload", zap.String("type", env.EventType), zap.Error(err))
		return nil
	}
	if summary == "" {
		return nil
	}

	ts := time.Now().Format(ReportLayout)
	return Append(n.LogPath, fmt.Sprintf("%s - %s", ts, summary))
}

func summarize(env crm.Envelope) (string, error) {
	switch env.EventType {
	case crm.EventCustomerCreated:
		p, err := kafkax.UnwrapPayload[crm.CustomerCreatedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("New customer %s", p.Email), nil
	case crm.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[crm.OrderCreatedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("New order %s for %s totaling %s", p.OrderID, p.CustomerEmail, p.TotalAmount.String()), nil
	case crm.EventProductRestocked:
		p, err := kafkax.UnwrapPayload[crm.ProductRestockedPayload](env.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Product %s restocked to %d", p.Name, p.Stock), nil
	}
	return "", nil
}
