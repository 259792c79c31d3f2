package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
)

const (
	invoiceNumberAttempts = 5
	clientInvoiceDueDays  = 30
)

// InvoiceService owns the money-movement documents and their status machine.
type InvoiceService struct {
	store repository.Store
	log   *zap.Logger
}

func NewInvoiceService(store repository.Store, log *zap.Logger) *InvoiceService {
	return &InvoiceService{store: store, log: log}
}

func invoiceNumber(kind models.InvoiceType, now time.Time) string {
	prefix := "INV-C"
	if kind == models.InvoiceTypeSupplier {
		prefix = "INV-S"
	}
	return fmt.Sprintf("%s-%d-%03d-%04d", prefix, now.Year(), now.YearDay(), rand.IntN(10000))
}

func createWithFreshNumber(ctx context.Context, invoices repository.InvoiceRepository, invoice *models.Invoice) error {
	var err error
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		invoice.InvoiceNumber = invoiceNumber(invoice.Type, time.Now())
		err = invoices.Create(ctx, invoice)
		if !errors.Is(err, apperrors.ErrDuplicateInvoiceNumber) {
			return err
		}
	}
	return apperrors.Wrap(apperrors.ErrInternal, err)
}

// CreateClientInvoiceWithin records the client invoice for a paid order
// inside an already-open transaction. Idempotent per order.
func (s *InvoiceService) CreateClientInvoiceWithin(ctx context.Context, tx repository.Store, order *models.Order) error {
	_, err := tx.Invoices().FindByOrderID(ctx, order.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	now := time.Now()
	due := now.AddDate(0, 0, clientInvoiceDueDays)
	invoice := &models.Invoice{
		Type:          models.InvoiceTypeClient,
		OrderID:       &order.ID,
		TotalAmount:   order.TotalAmount,
		Status:        models.InvoiceStatusPaid,
		PaymentMethod: order.PaymentMethod,
		DueDate:       &due,
		PaidDate:      &now,
		Metadata: datatypes.NewJSONType(models.InvoiceMetadata{
			Notes: "order " + order.OrderNumber,
		}),
	}
	return createWithFreshNumber(ctx, tx.Invoices(), invoice)
}

// CreateSupplierInvoice records a paid supplier invoice for a restock.
func (s *InvoiceService) CreateSupplierInvoice(ctx context.Context, variantID uuid.UUID, amount decimal.Decimal, supplier, paymentMethod string) (*models.Invoice, error) {
	now := time.Now()
	invoice := &models.Invoice{
		Type:          models.InvoiceTypeSupplier,
		VariantID:     &variantID,
		TotalAmount:   amount,
		Status:        models.InvoiceStatusPaid,
		PaymentMethod: paymentMethod,
		PaidDate:      &now,
		Metadata: datatypes.NewJSONType(models.InvoiceMetadata{
			Supplier: supplier,
		}),
	}
	if err := createWithFreshNumber(ctx, s.store.Invoices(), invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Transition moves an invoice through its status machine. Only the move to
// paid stamps PaidDate.
func (s *InvoiceService) Transition(ctx context.Context, id uuid.UUID, next models.InvoiceStatus) (*models.Invoice, error) {
	var updated *models.Invoice
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		invoice, err := tx.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !invoice.Status.CanTransitionTo(next) {
			return apperrors.ErrInvalidTransition
		}

		var paidDate *time.Time
		if next == models.InvoiceStatusPaid {
			now := time.Now()
			paidDate = &now
		}
		if err := tx.Invoices().UpdateStatus(ctx, id, next, paidDate); err != nil {
			return err
		}

		invoice.Status = next
		if paidDate != nil {
			invoice.PaidDate = paidDate
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SweepOverdue flips past-due pending invoices to overdue and returns how
// many moved. Meant to run on a schedule.
func (s *InvoiceService) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	moved, err := s.store.Invoices().MarkOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if moved > 0 {
		s.log.Info("invoices swept to overdue", zap.Int64("count", moved))
	}
	return moved, nil
}

// List is a pure query over invoices: by type, status, date window and
// free-text invoice-number search.
func (s *InvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	return s.store.Invoices().List(ctx, filter)
}

// Get returns one invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.store.Invoices().FindByID(ctx, id)
}
