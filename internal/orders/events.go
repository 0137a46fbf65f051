package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID           int64           `json:"order_id"`
	UserID            int64           `json:"user_id"`
	UserEmail         string          `json:"user_email"`
	Items             []ItemPrice     `json:"items"`
	Total             decimal.Decimal `json:"total"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
}

type OrderStatusChangedPayload struct {
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	UserEmail string `json:"user_email"`
	From      Status `json:"from"`
	To        Status `json:"to"`
}
