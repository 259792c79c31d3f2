package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
)

// LoyaltyRepository defines data access for loyalty accounts and the
// per-order credit log that backs idempotent accrual.
type LoyaltyRepository interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error)
	SaveAccount(ctx context.Context, account *models.LoyaltyAccount) error
	CreditExists(ctx context.Context, orderID uuid.UUID) (bool, error)
	// CreateCredit inserts the per-order credit row. A duplicate order
	// surfaces as gorm.ErrDuplicatedKey so the caller can treat a replay
	// as a no-op.
	CreateCredit(ctx context.Context, credit *models.LoyaltyCredit) error
}

// GormLoyaltyRepository implements LoyaltyRepository using GORM.
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyRepository creates a new instance of GormLoyaltyRepository.
func NewGormLoyaltyRepository(db *gorm.DB) LoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

func (r *GormLoyaltyRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	if err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *GormLoyaltyRepository) SaveAccount(ctx context.Context, account *models.LoyaltyAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *GormLoyaltyRepository) CreditExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoyaltyCredit{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormLoyaltyRepository) CreateCredit(ctx context.Context, credit *models.LoyaltyCredit) error {
	return r.db.WithContext(ctx).Create(credit).Error
}
