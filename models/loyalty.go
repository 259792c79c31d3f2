package models

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyAccount holds a shopper's reward balance. Invariant:
// Points == TotalEarned - TotalSpent.
type LoyaltyAccount struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Points      int64     `gorm:"not null;default:0;check:points >= 0" json:"points"`
	TotalEarned int64     `gorm:"not null;default:0;check:total_earned >= 0" json:"total_earned"`
	TotalSpent  int64     `gorm:"not null;default:0;check:total_spent >= 0" json:"total_spent"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoyaltyCredit records that an order has already been credited. The unique
// index on OrderID is what makes accrual idempotent under retried payment
// events.
type LoyaltyCredit struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	Points    int64     `gorm:"not null" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
