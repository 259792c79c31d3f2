package services

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
)

const lowStockPageSize = 100

// RestockResult reports what the restock saga achieved.
type RestockResult struct {
	NewQuantity int             `json:"new_quantity"`
	PaymentRef  string          `json:"payment_ref"`
	Invoice     *models.Invoice `json:"invoice,omitempty"`
}

// InventoryService fronts the stock ledger and runs the supplier restock
// saga.
type InventoryService struct {
	store    repository.Store
	supplier SupplierGateway
	payments PaymentGateway
	invoices *InvoiceService
	log      *zap.Logger
}

func NewInventoryService(store repository.Store, supplier SupplierGateway, payments PaymentGateway,
	invoices *InvoiceService, log *zap.Logger) *InventoryService {
	return &InventoryService{
		store:    store,
		supplier: supplier,
		payments: payments,
		invoices: invoices,
		log:      log,
	}
}

// AdjustStock applies a signed delta to a variant's stock counter and
// returns the new quantity.
func (s *InventoryService) AdjustStock(ctx context.Context, variantID uuid.UUID, delta int) (int, error) {
	if delta == 0 {
		variant, err := s.store.Inventory().FindVariant(ctx, variantID)
		if err != nil {
			return 0, err
		}
		return variant.StockQuantity, nil
	}

	newQty, err := s.store.Inventory().AdjustStock(ctx, variantID, delta)
	if err != nil {
		return 0, err
	}
	s.log.Info("stock adjusted",
		zap.String("variant_id", variantID.String()),
		zap.Int("delta", delta),
		zap.Int("stock_quantity", newQty))
	return newQty, nil
}

// GetVariant returns a variant's current stock row.
func (s *InventoryService) GetVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	return s.store.Inventory().FindVariant(ctx, variantID)
}

// LowStockVariants yields variants at or below their low-stock threshold,
// most critical first. The sequence is lazy and restartable: each range over
// it starts a fresh keyset walk.
func (s *InventoryService) LowStockVariants(ctx context.Context) iter.Seq2[models.ProductVariant, error] {
	return func(yield func(models.ProductVariant, error) bool) {
		afterStock := 0
		afterID := uuid.Nil
		for {
			page, err := s.store.Inventory().LowStockPage(ctx, afterStock, afterID, lowStockPageSize)
			if err != nil {
				yield(models.ProductVariant{}, err)
				return
			}
			for _, variant := range page {
				if !yield(variant, nil) {
					return
				}
			}
			if len(page) < lowStockPageSize {
				return
			}
			last := page[len(page)-1]
			afterStock = last.StockQuantity
			afterID = last.ID
		}
	}
}

// Restock runs the two-phase supplier saga: availability check, payment
// capture, then stock increment plus supplier invoice. The first two phases
// mutate nothing on failure. If the invoice write fails after the increment
// succeeded, the increment stands (the stock physically arrived) and the
// bookkeeping gap is surfaced for manual reconciliation.
func (s *InventoryService) Restock(ctx context.Context, variantID uuid.UUID, qty int, supplier, paymentMethod string) (*RestockResult, error) {
	if qty < 1 || supplier == "" || paymentMethod == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if _, err := s.store.Inventory().FindVariant(ctx, variantID); err != nil {
		return nil, err
	}

	quote, err := s.supplier.CheckAvailability(ctx, supplier, variantID, qty)
	if err != nil {
		return nil, err
	}

	cost := quote.UnitCost.Mul(decimal.NewFromInt(int64(qty)))
	paymentRef, err := s.payments.Capture(ctx, paymentMethod, cost)
	if err != nil {
		return nil, err
	}

	newQty, err := s.store.Inventory().AdjustStock(ctx, variantID, qty)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoices.CreateSupplierInvoice(ctx, variantID, cost, supplier, paymentMethod)
	if err != nil {
		// Stock already moved; do not roll it back. Operator reconciles.
		s.log.Error("supplier invoice recording failed after stock increment",
			zap.Error(err),
			zap.String("variant_id", variantID.String()),
			zap.Int("quantity", qty),
			zap.String("payment_ref", paymentRef))
		return &RestockResult{NewQuantity: newQty, PaymentRef: paymentRef},
			apperrors.Wrap(apperrors.ErrInvoiceRecording, err)
	}

	s.log.Info("restock completed",
		zap.String("variant_id", variantID.String()),
		zap.Int("quantity", qty),
		zap.String("supplier", supplier),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return &RestockResult{NewQuantity: newQty, PaymentRef: paymentRef, Invoice: invoice}, nil
}
