package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
)

// CartSummary is the derived view of a cart: totals are computed from the
// live catalog on every call, never stored.
type CartSummary struct {
	Lines       []CartLineView  `json:"lines"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CartLineView struct {
	Line      models.CartLine `json:"line"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartService owns cart lines scoped to an anonymous session or an
// authenticated user, including the merge-on-login flow.
type CartService struct {
	store repository.Store
	log   *zap.Logger
}

func NewCartService(store repository.Store, log *zap.Logger) *CartService {
	return &CartService{store: store, log: log}
}

// AddLine adds qty of a variant to the owner's cart. A repeat add for the
// same (product, variant) increments the existing line instead of creating a
// duplicate row. Returns the owner's updated line set.
func (s *CartService) AddLine(ctx context.Context, owner models.CartOwner, productID, variantID uuid.UUID, qty int) ([]models.CartLine, error) {
	if !owner.Valid() || qty < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		variant, err := tx.Catalog().FindVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if variant.ProductID != productID {
			return apperrors.ErrNotFound
		}

		existing, err := tx.Carts().FindByOwnerAndVariant(ctx, owner, productID, variantID)
		switch {
		case err == nil:
			return tx.Carts().UpdateQuantity(ctx, existing.ID, existing.Quantity+qty)
		case errors.Is(err, apperrors.ErrNotFound):
			line := &models.CartLine{
				UserID:    owner.UserID,
				SessionID: owner.SessionID,
				ProductID: productID,
				VariantID: variantID,
				Quantity:  qty,
			}
			return tx.Carts().Create(ctx, line)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return s.store.Carts().ListByOwner(ctx, owner)
}

// SetQuantity sets a line's quantity; qty <= 0 removes the line. Fails with
// NotFound when the line does not exist or belongs to another owner.
func (s *CartService) SetQuantity(ctx context.Context, owner models.CartOwner, lineID uuid.UUID, qty int) error {
	if !owner.Valid() {
		return apperrors.ErrInvalidInput
	}

	line, err := s.store.Carts().FindByID(ctx, lineID)
	if err != nil {
		return err
	}
	if !owner.Owns(*line) {
		return apperrors.ErrNotFound
	}

	if qty <= 0 {
		return s.store.Carts().Delete(ctx, lineID)
	}
	return s.store.Carts().UpdateQuantity(ctx, lineID, qty)
}

// RemoveLine removes a line from the owner's cart. Removing an absent line
// is a no-op success; removing someone else's line is NotFound.
func (s *CartService) RemoveLine(ctx context.Context, owner models.CartOwner, lineID uuid.UUID) error {
	if !owner.Valid() {
		return apperrors.ErrInvalidInput
	}

	line, err := s.store.Carts().FindByID(ctx, lineID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !owner.Owns(*line) {
		return apperrors.ErrNotFound
	}
	return s.store.Carts().Delete(ctx, lineID)
}

// Clear drops every line the owner holds. Idempotent.
func (s *CartService) Clear(ctx context.Context, owner models.CartOwner) error {
	if !owner.Valid() {
		return apperrors.ErrInvalidInput
	}
	return s.store.Carts().DeleteByOwner(ctx, owner)
}

// MergeAnonymousIntoUser re-owns every line of the anonymous session to the
// user in one transaction. Duplicate (product, variant) rows are summed into
// the user's line and the anonymous row dropped. Because rows are moved
// rather than copied, a retried merge finds no session rows and is a no-op.
func (s *CartService) MergeAnonymousIntoUser(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if sessionID == "" || userID == uuid.Nil {
		return apperrors.ErrInvalidInput
	}

	sessionOwner := models.OwnerForSession(sessionID)
	userOwner := models.OwnerForUser(userID)

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		sessionLines, err := tx.Carts().ListByOwner(ctx, sessionOwner)
		if err != nil {
			return err
		}
		if len(sessionLines) == 0 {
			return nil
		}

		userLines, err := tx.Carts().ListByOwner(ctx, userOwner)
		if err != nil {
			return err
		}
		byVariant := make(map[[2]uuid.UUID]models.CartLine, len(userLines))
		for _, line := range userLines {
			byVariant[[2]uuid.UUID{line.ProductID, line.VariantID}] = line
		}

		for _, line := range sessionLines {
			if existing, ok := byVariant[[2]uuid.UUID{line.ProductID, line.VariantID}]; ok {
				if err := tx.Carts().UpdateQuantity(ctx, existing.ID, existing.Quantity+line.Quantity); err != nil {
					return err
				}
				if err := tx.Carts().Delete(ctx, line.ID); err != nil {
					return err
				}
				continue
			}
			if err := tx.Carts().Reown(ctx, line.ID, userID); err != nil {
				return err
			}
		}

		s.log.Info("merged anonymous cart",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
			zap.Int("lines", len(sessionLines)))
		return nil
	})
}

// Summary returns the owner's cart with live prices and derived totals.
func (s *CartService) Summary(ctx context.Context, owner models.CartOwner) (*CartSummary, error) {
	if !owner.Valid() {
		return nil, apperrors.ErrInvalidInput
	}

	lines, err := s.store.Carts().ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		Lines:       make([]CartLineView, 0, len(lines)),
		TotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		pricing, err := s.store.Catalog().ResolvePricing(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		lineTotal := pricing.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Lines = append(summary.Lines, CartLineView{
			Line:      line,
			UnitPrice: pricing.UnitPrice,
			LineTotal: lineTotal,
		})
		summary.ItemCount += line.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(lineTotal)
	}
	return summary, nil
}
