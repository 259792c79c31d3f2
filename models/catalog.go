package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

// ProductVariant owns the stock counter. StockQuantity is only ever moved
// through the inventory repository's conditional delta update; it is never
// written directly by any other component.
type ProductVariant struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Size              string    `gorm:"size:20;not null" json:"size"`
	Color             *string   `gorm:"size:50" json:"color,omitempty"`
	StockQuantity     int       `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	LowStockThreshold int       `gorm:"not null;default:5;check:low_stock_threshold >= 0" json:"low_stock_threshold"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LowOnStock reports whether the variant is at or below its restock trigger.
func (v ProductVariant) LowOnStock() bool {
	return v.StockQuantity <= v.LowStockThreshold
}
