package services_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/models"
	"github.com/edn-commerce/storefront-core/repository"
)

// memStore is an in-memory repository.Store. Transaction snapshots every
// table and restores it when fn errors, so rollback semantics hold in tests.
type memStore struct {
	products map[uuid.UUID]models.Product
	variants map[uuid.UUID]models.ProductVariant
	lines    map[uuid.UUID]models.CartLine
	orders   map[uuid.UUID]models.Order
	accounts map[uuid.UUID]models.LoyaltyAccount
	credits  map[uuid.UUID]models.LoyaltyCredit
	invoices map[uuid.UUID]models.Invoice
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]models.Product{},
		variants: map[uuid.UUID]models.ProductVariant{},
		lines:    map[uuid.UUID]models.CartLine{},
		orders:   map[uuid.UUID]models.Order{},
		accounts: map[uuid.UUID]models.LoyaltyAccount{},
		credits:  map[uuid.UUID]models.LoyaltyCredit{},
		invoices: map[uuid.UUID]models.Invoice{},
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (m *memStore) addProduct(price string) models.Product {
	p := models.Product{ID: uuid.New(), Name: "product", Price: mustDecimal(price), Active: true}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addVariant(productID uuid.UUID, stock, threshold int) models.ProductVariant {
	v := models.ProductVariant{
		ID:                uuid.New(),
		ProductID:         productID,
		Size:              "M",
		StockQuantity:     stock,
		LowStockThreshold: threshold,
	}
	m.variants[v.ID] = v
	return v
}

func snapshot[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) Carts() repository.CartRepository          { return &memCarts{m} }
func (m *memStore) Catalog() repository.CatalogRepository     { return &memCatalog{m} }
func (m *memStore) Inventory() repository.InventoryRepository { return &memInventory{m} }
func (m *memStore) Orders() repository.OrderRepository        { return &memOrders{m} }
func (m *memStore) Loyalty() repository.LoyaltyRepository     { return &memLoyalty{m} }
func (m *memStore) Invoices() repository.InvoiceRepository    { return &memInvoices{m} }

func (m *memStore) Transaction(_ context.Context, fn func(repository.Store) error) error {
	products := snapshot(m.products)
	variants := snapshot(m.variants)
	lines := snapshot(m.lines)
	orders := snapshot(m.orders)
	accounts := snapshot(m.accounts)
	credits := snapshot(m.credits)
	invoices := snapshot(m.invoices)

	if err := fn(m); err != nil {
		m.products = products
		m.variants = variants
		m.lines = lines
		m.orders = orders
		m.accounts = accounts
		m.credits = credits
		m.invoices = invoices
		return err
	}
	return nil
}

// ---- carts ----

type memCarts struct{ s *memStore }

func (r *memCarts) ListByOwner(_ context.Context, owner models.CartOwner) ([]models.CartLine, error) {
	var out []models.CartLine
	for _, line := range r.s.lines {
		if owner.Owns(line) {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *memCarts) FindByID(_ context.Context, id uuid.UUID) (*models.CartLine, error) {
	line, ok := r.s.lines[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &line, nil
}

func (r *memCarts) FindByOwnerAndVariant(_ context.Context, owner models.CartOwner, productID, variantID uuid.UUID) (*models.CartLine, error) {
	for _, line := range r.s.lines {
		if owner.Owns(line) && line.ProductID == productID && line.VariantID == variantID {
			return &line, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memCarts) Create(_ context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	r.s.lines[line.ID] = *line
	return nil
}

func (r *memCarts) UpdateQuantity(_ context.Context, id uuid.UUID, qty int) error {
	line, ok := r.s.lines[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	line.Quantity = qty
	r.s.lines[id] = line
	return nil
}

func (r *memCarts) Reown(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	line, ok := r.s.lines[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	line.UserID = &userID
	line.SessionID = nil
	r.s.lines[id] = line
	return nil
}

func (r *memCarts) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.lines, id)
	return nil
}

func (r *memCarts) DeleteByOwner(_ context.Context, owner models.CartOwner) error {
	for id, line := range r.s.lines {
		if owner.Owns(line) {
			delete(r.s.lines, id)
		}
	}
	return nil
}

// ---- catalog ----

type memCatalog struct{ s *memStore }

func (r *memCatalog) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *memCatalog) FindVariant(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

func (r *memCatalog) ResolvePricing(_ context.Context, variantID uuid.UUID) (*repository.VariantPricing, error) {
	v, ok := r.s.variants[variantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p, ok := r.s.products[v.ProductID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &repository.VariantPricing{Variant: v, UnitPrice: p.Price}, nil
}

// ---- inventory ----

type memInventory struct{ s *memStore }

func (r *memInventory) FindVariant(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

func (r *memInventory) AdjustStock(_ context.Context, id uuid.UUID, delta int) (int, error) {
	v, ok := r.s.variants[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	if v.StockQuantity+delta < 0 {
		return 0, apperrors.InsufficientStock(id, -delta, v.StockQuantity)
	}
	v.StockQuantity += delta
	r.s.variants[id] = v
	return v.StockQuantity, nil
}

func (r *memInventory) LowStockPage(_ context.Context, afterStock int, afterID uuid.UUID, limit int) ([]models.ProductVariant, error) {
	var all []models.ProductVariant
	for _, v := range r.s.variants {
		if v.LowOnStock() {
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StockQuantity != all[j].StockQuantity {
			return all[i].StockQuantity < all[j].StockQuantity
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	var page []models.ProductVariant
	for _, v := range all {
		if v.StockQuantity < afterStock {
			continue
		}
		if v.StockQuantity == afterStock && v.ID.String() <= afterID.String() {
			continue
		}
		page = append(page, v)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r *memOrders) Create(_ context.Context, order *models.Order) error {
	for _, existing := range r.s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return apperrors.ErrDuplicateOrderNumber
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.s.orders[order.ID] = *order
	return nil
}

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &o, nil
}

func (r *memOrders) FindByIDAndUserID(_ context.Context, id, userID uuid.UUID) (*models.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return &o, nil
}

func (r *memOrders) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrders) FindAll(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range r.s.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memOrders) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	o, ok := r.s.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(models.OrderStatus)
		case "payment_status":
			o.PaymentStatus = v.(models.PaymentStatus)
		case "carrier":
			o.Carrier = v.(string)
		case "tracking_number":
			o.TrackingNumber = v.(string)
		}
	}
	r.s.orders[id] = o
	return nil
}

// ---- loyalty ----

type memLoyalty struct{ s *memStore }

func (r *memLoyalty) GetAccount(_ context.Context, userID uuid.UUID) (*models.LoyaltyAccount, error) {
	a, ok := r.s.accounts[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (r *memLoyalty) SaveAccount(_ context.Context, account *models.LoyaltyAccount) error {
	r.s.accounts[account.UserID] = *account
	return nil
}

func (r *memLoyalty) CreditExists(_ context.Context, orderID uuid.UUID) (bool, error) {
	_, ok := r.s.credits[orderID]
	return ok, nil
}

func (r *memLoyalty) CreateCredit(_ context.Context, credit *models.LoyaltyCredit) error {
	if _, ok := r.s.credits[credit.OrderID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if credit.ID == uuid.Nil {
		credit.ID = uuid.New()
	}
	r.s.credits[credit.OrderID] = *credit
	return nil
}

// ---- invoices ----

type memInvoices struct{ s *memStore }

func (r *memInvoices) Create(_ context.Context, invoice *models.Invoice) error {
	for _, existing := range r.s.invoices {
		if existing.InvoiceNumber == invoice.InvoiceNumber {
			return apperrors.ErrDuplicateInvoiceNumber
		}
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.Currency == "" {
		invoice.Currency = "EUR"
	}
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

func (r *memInvoices) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &inv, nil
}

func (r *memInvoices) FindByOrderID(_ context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	for _, inv := range r.s.invoices {
		if inv.OrderID != nil && *inv.OrderID == orderID {
			return &inv, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memInvoices) UpdateStatus(_ context.Context, id uuid.UUID, status models.InvoiceStatus, paidDate *time.Time) error {
	inv, ok := r.s.invoices[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	inv.Status = status
	if paidDate != nil {
		inv.PaidDate = paidDate
	}
	r.s.invoices[id] = inv
	return nil
}

func (r *memInvoices) List(_ context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	var out []models.Invoice
	for _, inv := range r.s.invoices {
		if filter.Type != "" && inv.Type != filter.Type {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(inv.InvoiceNumber, filter.Search) {
			continue
		}
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (r *memInvoices) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	var moved int64
	for id, inv := range r.s.invoices {
		if inv.PastDue(now) {
			inv.Status = models.InvoiceStatusOverdue
			r.s.invoices[id] = inv
			moved++
		}
	}
	return moved, nil
}
