package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one product/variant/quantity tuple pending purchase. Exactly
// one of UserID / SessionID is set; the unique indexes make a repeat add an
// increment instead of a duplicate row.
type CartLine struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_user_line" json:"user_id,omitempty"`
	SessionID *string    `gorm:"size:64;index;uniqueIndex:idx_cart_session_line" json:"session_id,omitempty"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_line;uniqueIndex:idx_cart_session_line" json:"product_id"`
	VariantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_line;uniqueIndex:idx_cart_session_line" json:"variant_id"`
	Quantity  int        `gorm:"not null;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartOwner scopes cart operations to either an authenticated user or an
// anonymous browser session.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID *string
}

// OwnerForUser builds the owner key for an authenticated shopper.
func OwnerForUser(userID uuid.UUID) CartOwner {
	return CartOwner{UserID: &userID}
}

// OwnerForSession builds the owner key for an anonymous session.
func OwnerForSession(sessionID string) CartOwner {
	return CartOwner{SessionID: &sessionID}
}

// Valid reports whether exactly one owner kind is set.
func (o CartOwner) Valid() bool {
	return (o.UserID != nil) != (o.SessionID != nil)
}

// Owns reports whether the line belongs to this owner.
func (o CartOwner) Owns(line CartLine) bool {
	if o.UserID != nil {
		return line.UserID != nil && *line.UserID == *o.UserID
	}
	if o.SessionID != nil {
		return line.SessionID != nil && *line.SessionID == *o.SessionID
	}
	return false
}
