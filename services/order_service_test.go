package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/services"
)

type capturePublisher struct {
	events []models.OrderPlacedEvent
	err    error
}

func (p *capturePublisher) PublishOrderPlaced(_ context.Context, evt models.OrderPlacedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type captureSNS struct {
	arns     []string
	payloads [][]byte
}

func (m *captureSNS) Publish(_ context.Context, topicArn string, message []byte) error {
	m.arns = append(m.arns, topicArn)
	m.payloads = append(m.payloads, append([]byte(nil), message...))
	return nil
}

func validAddress() models.Address {
	return models.Address{
		Name:       "Jean Dupont",
		Line1:      "1 rue de Rivoli",
		City:       "Paris",
		PostalCode: "75001",
		Country:    "FR",
	}
}

func placeInput() services.PlaceOrderInput {
	return services.PlaceOrderInput{
		Billing:       validAddress(),
		Shipping:      validAddress(),
		PaymentMethod: "card",
	}
}

type orderFixture struct {
	store     *memStore
	orders    *services.OrderService
	publisher *capturePublisher
	sns       *captureSNS
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := newMemStore()
	log := zap.NewNop()
	loyalty := services.NewLoyaltyService(store, log)
	invoices := services.NewInvoiceService(store, log)
	publisher := &capturePublisher{}
	sns := &captureSNS{}
	orders := services.NewOrderService(store, loyalty, invoices, publisher, sns,
		"arn:aws:sns:eu-west-3:000000000000:order-events", log)
	return &orderFixture{store: store, orders: orders, publisher: publisher, sns: sns}
}

func (f *orderFixture) seedCartLine(t *testing.T, userID uuid.UUID, productID, variantID uuid.UUID, qty int) {
	t.Helper()
	err := f.store.Carts().Create(context.Background(), &models.CartLine{
		UserID:    &userID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func TestPlaceOrder_ConsumesCartAndDecrementsStock(t *testing.T) {
	f := newOrderFixture(t)
	product := f.store.addProduct("25.00")
	variant := f.store.addVariant(product.ID, 10, 2)
	userID := uuid.New()
	f.seedCartLine(t, userID, product.ID, variant.ID, 3)

	order, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(mustDecimal("75.00")),
		"expected 75.00, got %s", order.TotalAmount)
	require.Len(t, order.OrderItems, 1)
	assert.True(t, order.OrderItems[0].UnitPrice.Equal(mustDecimal("25.00")))

	assert.Equal(t, 7, f.store.variants[variant.ID].StockQuantity)
	assert.Empty(t, f.store.lines, "cart must be consumed by checkout")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, order.ID.String(), f.publisher.events[0].OrderID)
	require.Len(t, f.sns.arns, 1)
}

func TestPlaceOrder_OrderNumberFormat(t *testing.T) {
	f := newOrderFixture(t)
	product := f.store.addProduct("25.00")
	variant := f.store.addVariant(product.ID, 10, 2)
	userID := uuid.New()
	f.seedCartLine(t, userID, product.ID, variant.ID, 1)

	order, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^EDN-\d{4}-\d{3}-\d{4}$`), order.OrderNumber)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.orders.PlaceOrder(context.Background(), uuid.New(), placeInput())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestPlaceOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newOrderFixture(t)
	product := f.store.addProduct("25.00")
	plenty := f.store.addVariant(product.ID, 10, 2)
	scarce := f.store.addVariant(product.ID, 1, 2)
	userID := uuid.New()
	f.seedCartLine(t, userID, product.ID, plenty.ID, 3)
	f.seedCartLine(t, userID, product.ID, scarce.ID, 5)

	_, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	var stockErr *apperrors.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, scarce.ID, stockErr.VariantID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 10, f.store.variants[plenty.ID].StockQuantity,
		"decrement on the first line must be rolled back")
	assert.Equal(t, 1, f.store.variants[scarce.ID].StockQuantity)
	assert.Len(t, f.store.lines, 2, "cart must survive a failed checkout")
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrder_PublisherFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.err = errors.New("broker down")
	product := f.store.addProduct("25.00")
	variant := f.store.addVariant(product.ID, 10, 2)
	userID := uuid.New()
	f.seedCartLine(t, userID, product.ID, variant.ID, 1)

	order, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Len(t, f.store.orders, 1)
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	f := newOrderFixture(t)

	in := placeInput()
	in.PaymentMethod = ""
	_, err := f.orders.PlaceOrder(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	in = placeInput()
	in.Shipping.PostalCode = ""
	_, err = f.orders.PlaceOrder(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func (f *orderFixture) placeOrder(t *testing.T, userID uuid.UUID) *models.Order {
	t.Helper()
	product := f.store.addProduct("40.50")
	variant := f.store.addVariant(product.ID, 10, 2)
	f.seedCartLine(t, userID, product.ID, variant.ID, 1)
	order, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.NoError(t, err)
	return order
}

func TestUpdateStatus_FollowsLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t, uuid.New())

	updated, err := f.orders.UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	_, err = f.orders.UpdateStatus(context.Background(), order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "skipping states must be rejected")
}

func TestUpdateStatus_CancelDoesNotRestock(t *testing.T) {
	f := newOrderFixture(t)
	product := f.store.addProduct("25.00")
	variant := f.store.addVariant(product.ID, 10, 2)
	userID := uuid.New()
	f.seedCartLine(t, userID, product.ID, variant.ID, 4)

	order, err := f.orders.PlaceOrder(context.Background(), userID, placeInput())
	require.NoError(t, err)
	require.Equal(t, 6, f.store.variants[variant.ID].StockQuantity)

	updated, err := f.orders.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 6, f.store.variants[variant.ID].StockQuantity,
		"cancellation is a status move only")

	_, err = f.orders.UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "cancelled is terminal")
}

func TestMarkPaymentStatus_PaidCreatesInvoiceAndAccruesOnce(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()
	order := f.placeOrder(t, userID)

	updated, err := f.orders.MarkPaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)

	invoice, err := f.store.Invoices().FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceTypeClient, invoice.Type)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.NotNil(t, invoice.PaidDate)
	assert.True(t, invoice.TotalAmount.Equal(order.TotalAmount))

	account, err := f.store.Loyalty().GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), account.Points, "points are floor(order total)")

	// A replayed payment webhook must not double-credit or double-invoice.
	_, err = f.orders.MarkPaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid)
	require.NoError(t, err)

	account, err = f.store.Loyalty().GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), account.Points)
	assert.Len(t, f.store.invoices, 1)
}

func TestMarkPaymentStatus_InvalidTransition(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t, uuid.New())

	_, err := f.orders.MarkPaymentStatus(context.Background(), order.ID, models.PaymentStatusRefunded)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestMarkPaymentStatus_FailedThenPaid(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t, uuid.New())

	_, err := f.orders.MarkPaymentStatus(context.Background(), order.ID, models.PaymentStatusFailed)
	require.NoError(t, err)

	updated, err := f.orders.MarkPaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Len(t, f.store.invoices, 1)
}

func TestSetTracking(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t, uuid.New())

	require.NoError(t, f.orders.SetTracking(context.Background(), order.ID, "colissimo", "CP123456789FR"))

	stored := f.store.orders[order.ID]
	assert.Equal(t, "colissimo", stored.Carrier)
	assert.Equal(t, "CP123456789FR", stored.TrackingNumber)

	err := f.orders.SetTracking(context.Background(), order.ID, "", "CP123456789FR")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()
	order := f.placeOrder(t, userID)

	got, err := f.orders.GetOrder(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.orders.GetOrder(context.Background(), uuid.New(), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
