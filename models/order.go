package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderFlow is the forward path; cancelled is reachable from any non-terminal
// state and handled in CanTransitionTo.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
	OrderStatusDelivered:  OrderStatusCompleted,
}

// Terminal reports whether no further status transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is a legal operator-driven move.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderFlow[s] == next
}

// ParseOrderStatus maps a request string to a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(raw))
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return s, nil
	}
	return "", errors.New("invalid order status")
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// CanTransitionTo reports whether next is a legal payment-status move.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusFailed
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	case PaymentStatusFailed:
		return next == PaymentStatusPaid
	}
	return false
}

// ParsePaymentStatus maps a request string to a known payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToLower(raw))
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return s, nil
	}
	return "", errors.New("invalid payment status")
}

// Address is the typed shape persisted as JSONB for billing and shipping.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Validate enforces the required fields at the boundary.
func (a Address) Validate() error {
	if a.Name == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return errors.New("address requires name, line1, city, postal_code and country")
	}
	return nil
}

// Order is append-only once created: only Status, PaymentStatus, tracking
// metadata and UpdatedAt may change afterwards.
type Order struct {
	ID              uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string                       `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID                    `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          OrderStatus                  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus                `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod   string                       `gorm:"size:40;not null" json:"payment_method"`
	TotalAmount     decimal.Decimal              `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	BillingAddress  datatypes.JSONType[Address]  `gorm:"type:jsonb" json:"billing_address"`
	ShippingAddress datatypes.JSONType[Address]  `gorm:"type:jsonb" json:"shipping_address"`
	Notes           string                       `gorm:"type:text" json:"notes,omitempty"`
	Carrier         string                       `gorm:"size:60" json:"carrier,omitempty"`
	TrackingNumber  string                       `gorm:"size:60" json:"tracking_number,omitempty"`
	CreatedAt       time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	OrderItems      []OrderItem                  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

// OrderItem is the immutable snapshot of a cart line captured at
// order-creation time.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	VariantID  uuid.UUID       `gorm:"type:uuid;not null" json:"variant_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}
