package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
)

// InventoryRepository is the sole writer of stock_quantity. Every other
// component requests signed deltas through AdjustStock.
type InventoryRepository interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	// AdjustStock applies stock_quantity += delta as one conditional UPDATE
	// and returns the resulting quantity. A delta that would take the counter
	// negative fails with an insufficient-stock error and changes nothing.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	// LowStockPage returns the next keyset page of variants at or below their
	// threshold, ordered by stock ascending then id.
	LowStockPage(ctx context.Context, afterStock int, afterID uuid.UUID, limit int) ([]models.ProductVariant, error)
}

// GormInventoryRepository implements InventoryRepository using GORM.
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new instance of GormInventoryRepository.
func NewGormInventoryRepository(db *gorm.DB) InventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

func (r *GormInventoryRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	// The WHERE guard makes the read-modify-write atomic: two concurrent
	// decrements serialize on the row and the loser sees RowsAffected == 0.
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		var variant models.ProductVariant
		err := r.db.WithContext(ctx).
			Select("id", "stock_quantity").
			First(&variant, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, apperrors.ErrNotFound
			}
			return 0, err
		}
		return 0, apperrors.InsufficientStock(id, -delta, variant.StockQuantity)
	}

	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Select("id", "stock_quantity").
		First(&variant, "id = ?", id).Error; err != nil {
		return 0, err
	}
	return variant.StockQuantity, nil
}

func (r *GormInventoryRepository) LowStockPage(ctx context.Context, afterStock int, afterID uuid.UUID, limit int) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	query := r.db.WithContext(ctx).
		Where("stock_quantity <= low_stock_threshold")
	if afterID != uuid.Nil {
		query = query.Where("(stock_quantity, id) > (?, ?)", afterStock, afterID)
	}
	err := query.
		Order("stock_quantity ASC, id ASC").
		Limit(limit).
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}
