package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories behind one transactional boundary. Every
// multi-row mutation in the core (order placement, cart merge, loyalty
// accrual, restock bookkeeping) runs inside Transaction so it either commits
// fully or rolls back fully.
type Store interface {
	Carts() CartRepository
	Catalog() CatalogRepository
	Inventory() InventoryRepository
	Orders() OrderRepository
	Loyalty() LoyaltyRepository
	Invoices() InvoiceRepository

	// Transaction runs fn against a store bound to a single database
	// transaction. A returned error rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// GormStore implements Store on a gorm handle (either the root *gorm.DB or a
// transaction handle).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Carts() CartRepository          { return &GormCartRepository{db: s.db} }
func (s *GormStore) Catalog() CatalogRepository     { return &GormCatalogRepository{db: s.db} }
func (s *GormStore) Inventory() InventoryRepository { return &GormInventoryRepository{db: s.db} }
func (s *GormStore) Orders() OrderRepository        { return &GormOrderRepository{db: s.db} }
func (s *GormStore) Loyalty() LoyaltyRepository     { return &GormLoyaltyRepository{db: s.db} }
func (s *GormStore) Invoices() InvoiceRepository    { return &GormInvoiceRepository{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
