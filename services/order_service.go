package services

import (
	"context"
	"encoding/json"
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
	awspkg "github.com/edn-commerce/storefront-core/pkg/aws"
	"github.com/edn-commerce/storefront-core/repository"
)

const orderNumberAttempts = 5

// OrderEventPublisher pushes order lifecycle events to the message bus.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, evt models.OrderPlacedEvent) error
}

// PlaceOrderInput carries the checkout form.
type PlaceOrderInput struct {
	Billing       models.Address
	Shipping      models.Address
	PaymentMethod string
	Notes         string
}

// OrderResponse is a paginated order listing.
type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService converts carts into immutable orders and owns every status
// transition afterwards.
type OrderService struct {
	store       repository.Store
	loyalty     *LoyaltyService
	invoices    *InvoiceService
	publisher   OrderEventPublisher
	snsClient   awspkg.SNSPublisher
	snsTopicArn string
	log         *zap.Logger
}

func NewOrderService(store repository.Store, loyalty *LoyaltyService, invoices *InvoiceService,
	publisher OrderEventPublisher, snsClient awspkg.SNSPublisher, snsTopicArn string, log *zap.Logger) *OrderService {
	return &OrderService{
		store:       store,
		loyalty:     loyalty,
		invoices:    invoices,
		publisher:   publisher,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		log:         log,
	}
}

func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("EDN-%d-%03d-%04d", now.Year(), now.YearDay(), rand.IntN(10000))
}

// PlaceOrder turns the user's cart into an order: it resolves live prices,
// decrements stock per line, inserts the order with its items and clears the
// cart, all inside one transaction, so an insufficient-stock failure on the
// last line rolls back every decrement already applied. A duplicate order
// number retries the whole transaction with a fresh number.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, in PlaceOrderInput) (*models.Order, error) {
	if userID == uuid.Nil || in.PaymentMethod == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if err := in.Billing.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	if err := in.Shipping.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}

	owner := models.OwnerForUser(userID)

	var placed *models.Order
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		placed, err = s.tryPlaceOrder(ctx, userID, owner, in)
		if !errors.Is(err, apperrors.ErrDuplicateOrderNumber) {
			break
		}
		s.log.Warn("order number collision, regenerating", zap.Int("attempt", attempt+1))
	}
	if errors.Is(err, apperrors.ErrDuplicateOrderNumber) {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	if err != nil {
		return nil, err
	}

	s.publishPlaced(ctx, placed)
	return placed, nil
}

func (s *OrderService) tryPlaceOrder(ctx context.Context, userID uuid.UUID, owner models.CartOwner, in PlaceOrderInput) (*models.Order, error) {
	var placed *models.Order

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lines, err := tx.Carts().ListByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperrors.ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			pricing, err := tx.Catalog().ResolvePricing(ctx, line.VariantID)
			if err != nil {
				return err
			}

			if _, err := tx.Inventory().AdjustStock(ctx, line.VariantID, -line.Quantity); err != nil {
				return err
			}

			lineTotal := pricing.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.OrderItem{
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				UnitPrice:  pricing.UnitPrice,
				TotalPrice: lineTotal,
			})
			total = total.Add(lineTotal)
		}

		order := &models.Order{
			OrderNumber:     generateOrderNumber(time.Now()),
			UserID:          userID,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   in.PaymentMethod,
			TotalAmount:     total,
			BillingAddress:  datatypes.NewJSONType(in.Billing),
			ShippingAddress: datatypes.NewJSONType(in.Shipping),
			Notes:           in.Notes,
			OrderItems:      items,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		// The cart is consumed only once the order and its items are in.
		if err := tx.Carts().DeleteByOwner(ctx, owner); err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, order *models.Order) {
	evt := models.OrderPlacedEvent{
		Event:       "order.placed",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now(),
	}
	for _, item := range order.OrderItems {
		evt.Items = append(evt.Items, models.OrderPlacedItem{
			ProductID: item.ProductID.String(),
			VariantID: item.VariantID.String(),
			Quantity:  item.Quantity,
		})
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, evt); err != nil {
			s.log.Error("failed to publish order.placed", zap.Error(err),
				zap.String("order_id", evt.OrderID))
		}
	}

	// SNS fanout is best-effort; the order is already durable.
	if s.snsClient != nil && s.snsTopicArn != "" {
		payload, err := json.Marshal(evt)
		if err == nil {
			if err := s.snsClient.Publish(ctx, s.snsTopicArn, payload); err != nil {
				s.log.Warn("sns publish failed", zap.Error(err),
					zap.String("order_id", evt.OrderID))
			}
		}
	}
}

// UpdateStatus applies an operator-driven status transition. Cancellation is
// a status move only: committed stock decrements are not undone.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return apperrors.ErrInvalidTransition
		}
		if err := tx.Orders().UpdateFields(ctx, orderID, map[string]interface{}{"status": next}); err != nil {
			return err
		}
		order.Status = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(next)))
	return updated, nil
}

// MarkPaymentStatus applies a payment-status transition. The first move to
// paid also records the client invoice and accrues loyalty points, all in the
// same transaction; both side effects are idempotent per order, so retried
// payment webhooks cannot double-credit.
func (s *OrderService) MarkPaymentStatus(ctx context.Context, orderID uuid.UUID, next models.PaymentStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus != next {
			if !order.PaymentStatus.CanTransitionTo(next) {
				return apperrors.ErrInvalidTransition
			}
			if err := tx.Orders().UpdateFields(ctx, orderID, map[string]interface{}{"payment_status": next}); err != nil {
				return err
			}
			order.PaymentStatus = next
		}

		if next == models.PaymentStatusPaid {
			if err := s.invoices.CreateClientInvoiceWithin(ctx, tx, order); err != nil {
				return err
			}
			if err := s.loyalty.AccrueWithin(ctx, tx, order.UserID, order.ID, order.TotalAmount); err != nil {
				return err
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order payment status updated",
		zap.String("order_id", orderID.String()),
		zap.String("payment_status", string(next)))
	return updated, nil
}

// SetTracking attaches carrier tracking metadata, the only mutable fields
// besides the two status columns.
func (s *OrderService) SetTracking(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string) error {
	if carrier == "" || trackingNumber == "" {
		return apperrors.ErrInvalidInput
	}
	return s.store.Orders().UpdateFields(ctx, orderID, map[string]interface{}{
		"carrier":         carrier,
		"tracking_number": trackingNumber,
	})
}

// GetOrder retrieves one order scoped to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.store.Orders().FindByIDAndUserID(ctx, orderID, userID)
}

// GetUserOrders retrieves paginated orders for a specific user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, error) {
	orders, total, err := s.store.Orders().FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return newOrderResponse(orders, total, page, limit), nil
}

// GetAllOrders retrieves paginated orders across users (back office).
func (s *OrderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderResponse, error) {
	orders, total, err := s.store.Orders().FindAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return newOrderResponse(orders, total, page, limit), nil
}

func newOrderResponse(orders []models.Order, total int64, page, limit int) *OrderResponse {
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
