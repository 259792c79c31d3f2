package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceType string

const (
	InvoiceTypeClient   InvoiceType = "client"
	InvoiceTypeSupplier InvoiceType = "supplier"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// CanTransitionTo reports whether next is a legal invoice-status move.
// pending -> paid | cancelled | overdue, overdue -> paid | cancelled.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceStatusPending:
		return next == InvoiceStatusPaid || next == InvoiceStatusCancelled || next == InvoiceStatusOverdue
	case InvoiceStatusOverdue:
		return next == InvoiceStatusPaid || next == InvoiceStatusCancelled
	}
	return false
}

// ParseInvoiceStatus maps a request string to a known invoice status.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(strings.ToLower(raw))
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return s, nil
	}
	return "", errors.New("invalid invoice status")
}

// InvoiceMetadata is the typed shape persisted as JSONB alongside an invoice.
type InvoiceMetadata struct {
	Supplier      string `json:"supplier,omitempty"`
	PaymentRef    string `json:"payment_ref,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ReconcileFlag bool   `json:"reconcile_flag,omitempty"`
}

// Invoice records a money-movement document: a client invoice tied to an
// order, or a supplier invoice tied to a restocked variant. PaidDate is set
// iff Status is paid.
type Invoice struct {
	ID            uuid.UUID                           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber string                              `gorm:"size:32;uniqueIndex;not null" json:"invoice_number"`
	Type          InvoiceType                         `gorm:"type:varchar(10);not null;index" json:"type"`
	OrderID       *uuid.UUID                          `gorm:"type:uuid;index" json:"order_id,omitempty"`
	VariantID     *uuid.UUID                          `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	TotalAmount   decimal.Decimal                     `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency      string                              `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status        InvoiceStatus                       `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	PaymentMethod string                              `gorm:"size:40" json:"payment_method,omitempty"`
	DueDate       *time.Time                          `json:"due_date,omitempty"`
	PaidDate      *time.Time                          `json:"paid_date,omitempty"`
	Metadata      datatypes.JSONType[InvoiceMetadata] `gorm:"type:jsonb" json:"metadata"`
	CreatedAt     time.Time                           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                           `gorm:"autoUpdateTime" json:"updated_at"`
}

// PastDue reports whether a still-pending invoice has blown its due date.
func (i Invoice) PastDue(now time.Time) bool {
	return i.Status == InvoiceStatusPending && i.DueDate != nil && now.After(*i.DueDate)
}
