package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
)

// CartRepository defines data access for cart lines.
type CartRepository interface {
	ListByOwner(ctx context.Context, owner models.CartOwner) ([]models.CartLine, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	FindByOwnerAndVariant(ctx context.Context, owner models.CartOwner, productID, variantID uuid.UUID) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, qty int) error
	Reown(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, owner models.CartOwner) error
}

// GormCartRepository implements CartRepository using GORM.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new instance of GormCartRepository.
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func ownerScope(owner models.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != nil {
			return db.Where("user_id = ?", *owner.UserID)
		}
		return db.Where("session_id = ?", *owner.SessionID)
	}
}

func (r *GormCartRepository) ListByOwner(ctx context.Context, owner models.CartOwner) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *GormCartRepository) FindByOwnerAndVariant(ctx context.Context, owner models.CartOwner, productID, variantID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *GormCartRepository) Create(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *GormCartRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", id).
		Update("quantity", qty).Error
}

// Reown moves a line to the authenticated user in a single UPDATE, which is
// what makes merge-on-login idempotent: a second run finds no session rows.
func (r *GormCartRepository) Reown(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"session_id": nil,
		}).Error
}

// Delete is idempotent: deleting an absent line is a no-op success.
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartLine{}, "id = ?", id).Error
}

func (r *GormCartRepository) DeleteByOwner(ctx context.Context, owner models.CartOwner) error {
	return r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Delete(&models.CartLine{}).Error
}
