package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Error represents an application error with an HTTP status attached.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets sentinel comparisons survive Wrap: two *Error values match when
// they carry the same code and message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error.
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches a cause to a sentinel without mutating it.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     err,
	}
}

// Sentinel errors for the commerce core. Controllers map these to HTTP
// responses via Status; services return them as typed results.
var (
	ErrNotFound               = New(http.StatusNotFound, "Not found", nil)
	ErrEmptyCart              = New(http.StatusUnprocessableEntity, "Cart is empty", nil)
	ErrInsufficientStock      = New(http.StatusConflict, "Insufficient stock", nil)
	ErrSupplierOutOfStock     = New(http.StatusConflict, "Supplier out of stock", nil)
	ErrPaymentDeclined        = New(http.StatusPaymentRequired, "Payment declined", nil)
	ErrInvoiceRecording       = New(http.StatusInternalServerError, "Invoice recording failed", nil)
	ErrDuplicateOrderNumber   = New(http.StatusInternalServerError, "Order number collision", nil)
	ErrDuplicateInvoiceNumber = New(http.StatusInternalServerError, "Invoice number collision", nil)
	ErrInvalidTransition      = New(http.StatusConflict, "Invalid status transition", nil)
	ErrInsufficientPoints     = New(http.StatusConflict, "Insufficient loyalty points", nil)
	ErrForbidden              = New(http.StatusForbidden, "Forbidden", nil)
	ErrUnauthorized           = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrInvalidInput           = New(http.StatusBadRequest, "Invalid input", nil)
	ErrInternal               = New(http.StatusInternalServerError, "Internal server error", nil)
)

// InsufficientStockError carries the variant that could not cover the
// requested decrement so the storefront can name the sold-out size.
type InsufficientStockError struct {
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// Is makes the error match ErrInsufficientStock in errors.Is chains.
func (e *InsufficientStockError) Is(target error) bool {
	return errors.Is(ErrInsufficientStock, target)
}

// InsufficientStock builds the typed variant-level stock failure.
func InsufficientStock(variantID uuid.UUID, requested, available int) error {
	return &InsufficientStockError{VariantID: variantID, Requested: requested, Available: available}
}

// Status resolves the HTTP status for any error returned by the services.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return ErrInsufficientStock.Code
	}
	return http.StatusInternalServerError
}
