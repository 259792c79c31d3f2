package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after an order transaction commits.
type OrderPlacedEvent struct {
	Event       string            `json:"event"` // "order.placed"
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      string            `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedItem `json:"items"`
	Timestamp   time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentEvent arrives from the payment gateway integration, over Kafka or
// SQS (possibly wrapped in an SNS envelope).
type PaymentEvent struct {
	Type      string    `json:"type"` // "payment_succeeded" | "payment_failed" | "payment_refunded"
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
