package crm

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicCustomerCreated  = "crm.customer.created"
	TopicOrderCreated     = "crm.order.created"
	TopicProductRestocked = "crm.product.restocked"
)

const (
	EventCustomerCreated  = "CustomerCreated"
	EventOrderCreated     = "OrderCreated"
	EventProductRestocked = "ProductRestocked"
)

// Partition key = entity id, so events for one entity stay ordered.
func PartitionKey(id string) []byte { return []byte(id) }

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type CustomerCreatedPayload struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

type OrderCreatedPayload struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	CustomerEmail string          `json:"customer_email"`
	ProductIDs    []string        `json:"product_ids"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type ProductRestockedPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}
