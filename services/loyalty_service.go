package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
)

// LoyaltyService is the sole authority for reward-point balances. Accrual is
// idempotent per order: the credit log's unique order index makes a replayed
// payment event a no-op.
type LoyaltyService struct {
	store repository.Store
	log   *zap.Logger
}

func NewLoyaltyService(store repository.Store, log *zap.Logger) *LoyaltyService {
	return &LoyaltyService{store: store, log: log}
}

// Accrue credits floor(orderTotal) points for the order, exactly once.
func (s *LoyaltyService) Accrue(ctx context.Context, userID, orderID uuid.UUID, orderTotal decimal.Decimal) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		return s.AccrueWithin(ctx, tx, userID, orderID, orderTotal)
	})
}

// AccrueWithin runs the accrual inside an already-open transaction so order
// payment confirmation and loyalty credit commit as one unit.
func (s *LoyaltyService) AccrueWithin(ctx context.Context, tx repository.Store, userID, orderID uuid.UUID, orderTotal decimal.Decimal) error {
	credited, err := tx.Loyalty().CreditExists(ctx, orderID)
	if err != nil {
		return err
	}
	if credited {
		s.log.Info("loyalty accrual already recorded, skipping",
			zap.String("order_id", orderID.String()))
		return nil
	}

	points := orderTotal.Floor().IntPart()
	if points < 0 {
		return apperrors.ErrInvalidInput
	}

	err = tx.Loyalty().CreateCredit(ctx, &models.LoyaltyCredit{
		UserID:  userID,
		OrderID: orderID,
		Points:  points,
	})
	if err != nil {
		// A concurrent replay lost the race on the unique order index; the
		// credit is already there, which is the outcome we wanted.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	account, err := tx.Loyalty().GetAccount(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		account = &models.LoyaltyAccount{UserID: userID}
	} else if err != nil {
		return err
	}

	account.Points += points
	account.TotalEarned += points
	if err := tx.Loyalty().SaveAccount(ctx, account); err != nil {
		return err
	}

	s.log.Info("loyalty points accrued",
		zap.String("user_id", userID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int64("points", points))
	return nil
}

// Redeem spends points from the user's balance.
func (s *LoyaltyService) Redeem(ctx context.Context, userID uuid.UUID, points int64) error {
	if points < 1 {
		return apperrors.ErrInvalidInput
	}
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := tx.Loyalty().GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		if account.Points < points {
			return apperrors.ErrInsufficientPoints
		}
		account.Points -= points
		account.TotalSpent += points
		return tx.Loyalty().SaveAccount(ctx, account)
	})
}

// Account returns the user's loyalty account, zero-valued when none exists.
func (s *LoyaltyService) Account(ctx context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	account, err := s.store.Loyalty().GetAccount(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &models.LoyaltyAccount{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
