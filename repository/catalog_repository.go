package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
)

// VariantPricing is a variant joined with its product's live price. Order
// placement resolves prices through this at call time, never from a stale
// cart cache.
type VariantPricing struct {
	Variant   models.ProductVariant
	UnitPrice decimal.Decimal
}

// CatalogRepository defines read access to products and variants.
type CatalogRepository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	ResolvePricing(ctx context.Context, variantID uuid.UUID) (*VariantPricing, error)
}

// GormCatalogRepository implements CatalogRepository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new instance of GormCatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormCatalogRepository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

func (r *GormCatalogRepository) ResolvePricing(ctx context.Context, variantID uuid.UUID) (*VariantPricing, error) {
	variant, err := r.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	product, err := r.FindProduct(ctx, variant.ProductID)
	if err != nil {
		return nil, err
	}
	return &VariantPricing{Variant: *variant, UnitPrice: product.Price}, nil
}
