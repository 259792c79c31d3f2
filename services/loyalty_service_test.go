package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edn-commerce/storefront-core/apperrors"
	"github.com/edn-commerce/storefront-core/services"
)

func newLoyaltyFixture(t *testing.T) (*services.LoyaltyService, *memStore) {
	t.Helper()
	store := newMemStore()
	return services.NewLoyaltyService(store, zap.NewNop()), store
}

func TestAccrue_FlooredPointsExactlyOnce(t *testing.T) {
	svc, store := newLoyaltyFixture(t)
	userID := uuid.New()
	orderID := uuid.New()

	require.NoError(t, svc.Accrue(context.Background(), userID, orderID, mustDecimal("123.99")))

	account, err := svc.Account(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(123), account.Points, "points are floor(total)")
	assert.Equal(t, int64(123), account.TotalEarned)

	// Replaying the same order must not credit again.
	require.NoError(t, svc.Accrue(context.Background(), userID, orderID, mustDecimal("123.99")))

	account, err = svc.Account(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(123), account.Points)
	assert.Len(t, store.credits, 1)
}

func TestAccrue_AccumulatesAcrossOrders(t *testing.T) {
	svc, _ := newLoyaltyFixture(t)
	userID := uuid.New()

	require.NoError(t, svc.Accrue(context.Background(), userID, uuid.New(), mustDecimal("50.00")))
	require.NoError(t, svc.Accrue(context.Background(), userID, uuid.New(), mustDecimal("25.50")))

	account, err := svc.Account(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), account.Points)
}

func TestRedeem(t *testing.T) {
	svc, _ := newLoyaltyFixture(t)
	userID := uuid.New()
	require.NoError(t, svc.Accrue(context.Background(), userID, uuid.New(), mustDecimal("100.00")))

	require.NoError(t, svc.Redeem(context.Background(), userID, 40))

	account, err := svc.Account(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), account.Points)
	assert.Equal(t, int64(100), account.TotalEarned)
	assert.Equal(t, int64(40), account.TotalSpent)
}

func TestRedeem_InsufficientPoints(t *testing.T) {
	svc, _ := newLoyaltyFixture(t)
	userID := uuid.New()
	require.NoError(t, svc.Accrue(context.Background(), userID, uuid.New(), mustDecimal("10.00")))

	err := svc.Redeem(context.Background(), userID, 11)
	require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)

	account, aerr := svc.Account(context.Background(), userID)
	require.NoError(t, aerr)
	assert.Equal(t, int64(10), account.Points, "failed redemption must not touch the balance")
}

func TestRedeem_InvalidPoints(t *testing.T) {
	svc, _ := newLoyaltyFixture(t)
	err := svc.Redeem(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAccount_ZeroValuedWhenAbsent(t *testing.T) {
	svc, _ := newLoyaltyFixture(t)
	userID := uuid.New()

	account, err := svc.Account(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, account.UserID)
	assert.Zero(t, account.Points)
}
