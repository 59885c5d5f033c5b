package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

func TestMemory_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	u := &domain.User{Name: "a", Email: "a@x.io", Role: domain.RoleCustomer}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	err := m.CreateUser(ctx, &domain.User{Name: "b", Email: "a@x.io"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := m.GetUserByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Name)

	missing, err := m.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_DecrementStock(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()
	retailerID, productID := seedStock(t, ctx, m, 5)

	ok, err := m.DecrementStock(ctx, retailerID, productID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.DecrementStock(ctx, retailerID, productID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.DecrementStock(ctx, retailerID, productID+100, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	inv, err := m.GetInventory(ctx, retailerID, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Stock)
	assert.Equal(t, 1, inv.Version)
}

func TestMemory_CreateInventory_UniquePair(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()
	retailerID, productID := seedStock(t, ctx, m, 1)

	err := m.CreateInventory(ctx, &domain.RetailerInventory{RetailerID: retailerID, ProductID: productID})
	assert.ErrorIs(t, err, domain.ErrInventoryExists)
}

func TestMemory_WithTx_RollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()
	retailerID, productID := seedStock(t, ctx, m, 10)

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(repo port.DatabaseRepository) error {
		ok, err := repo.DecrementStock(ctx, retailerID, productID, 4)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repo.SetPrice(ctx, retailerID, productID, 99))
		require.NoError(t, repo.CreateOrder(ctx, &domain.Order{CustomerID: 1, RetailerID: retailerID}))
		require.NoError(t, repo.CreateUser(ctx, &domain.User{Email: "ghost@x.io"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	inv, err := m.GetInventory(ctx, retailerID, productID)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Stock)
	assert.Equal(t, 12.0, inv.Price)

	orders, err := m.ListOrdersByRetailer(ctx, retailerID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	ghost, err := m.GetUserByEmail(ctx, "ghost@x.io")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestMemory_WithTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()
	retailerID, productID := seedStock(t, ctx, m, 10)

	assert.Panics(t, func() {
		_ = m.WithTx(ctx, func(repo port.DatabaseRepository) error {
			_, _ = repo.DecrementStock(ctx, retailerID, productID, 10)
			panic("boom")
		})
	})

	inv, err := m.GetInventory(ctx, retailerID, productID)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Stock)
}

func TestMemory_WithTx_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	initialStock := 20
	totalRequests := 50
	retailerID, productID := seedStock(t, ctx, m, initialStock)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithTx(ctx, func(repo port.DatabaseRepository) error {
				ok, err := repo.DecrementStock(ctx, retailerID, productID, 1)
				if err != nil {
					return err
				}
				if !ok {
					return domain.ErrInsufficientStock
				}
				return nil
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	inv, _ := m.GetInventory(ctx, retailerID, productID)
	assert.Equal(t, 0, inv.Stock)
}

func TestMemory_Orders_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	order := &domain.Order{CustomerID: 1, RetailerID: 2, OrderStatus: domain.OrderStatusPlaced,
		Items: []domain.OrderItem{{ProductID: 3, Quantity: 1}}}
	require.NoError(t, m.CreateOrder(ctx, order))
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.NotZero(t, order.Items[0].ID)

	got, err := m.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 99

	again, _ := m.GetOrder(ctx, order.ID)
	assert.Equal(t, 1, again.Items[0].Quantity)

	require.NoError(t, m.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivered))
	again, _ = m.GetOrder(ctx, order.ID)
	assert.Equal(t, domain.OrderStatusDelivered, again.OrderStatus)

	assert.Error(t, m.UpdateOrderStatus(ctx, 999, domain.OrderStatusPacked))
}

func TestMemory_Feedback_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	o1 := &domain.Order{CustomerID: 1, RetailerID: 1, OrderStatus: domain.OrderStatusPlaced}
	o2 := &domain.Order{CustomerID: 1, RetailerID: 2, OrderStatus: domain.OrderStatusPlaced}
	require.NoError(t, m.CreateOrder(ctx, o1))
	require.NoError(t, m.CreateOrder(ctx, o2))

	orderID := o1.ID
	require.NoError(t, m.CreateFeedback(ctx, &domain.Feedback{ProductID: 3, CustomerID: 1, OrderID: &orderID, Rating: 5}))
	orderID = o2.ID

	byRetailer1, err := m.ListFeedbackByRetailer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byRetailer1, 1)
	byRetailer2, _ := m.ListFeedbackByRetailer(ctx, 2)
	assert.Empty(t, byRetailer2)

	*byRetailer1[0].OrderID = o2.ID
	byProduct, _ := m.ListFeedbackByProduct(ctx, 3)
	require.Len(t, byProduct, 1)
	assert.Equal(t, o1.ID, *byProduct[0].OrderID)
}

func TestMemory_Inventory_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	wholesaler := int64(7)
	require.NoError(t, m.CreateInventory(ctx, &domain.RetailerInventory{RetailerID: 1, ProductID: 2, WholesalerID: &wholesaler, Stock: 1}))
	wholesaler = 8

	got, err := m.GetInventory(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got.WholesalerID)
	assert.Equal(t, int64(7), *got.WholesalerID)

	*got.WholesalerID = 9
	rows, _ := m.ListInventoryByRetailer(ctx, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), *rows[0].WholesalerID)
}

func TestMemory_WholesaleTransition(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	wo := &domain.WholesaleOrder{RetailerID: 1, ProductID: 2, Quantity: 5, Status: domain.WholesaleStatusPending}
	require.NoError(t, m.CreateWholesaleOrder(ctx, wo))

	pending, err := m.ListWholesaleOrdersByStatus(ctx, domain.WholesaleStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	ok, err := m.TransitionWholesaleOrder(ctx, wo.ID, domain.WholesaleStatusPending, domain.WholesaleStatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.TransitionWholesaleOrder(ctx, wo.ID, domain.WholesaleStatusPending, domain.WholesaleStatusApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, _ = m.ListWholesaleOrdersByStatus(ctx, domain.WholesaleStatusPending)
	assert.Empty(t, pending)
}

func TestMemory_ListFeedbackByRetailer(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAdapter()

	mine := &domain.Order{CustomerID: 1, RetailerID: 7}
	other := &domain.Order{CustomerID: 1, RetailerID: 8}
	require.NoError(t, m.CreateOrder(ctx, mine))
	require.NoError(t, m.CreateOrder(ctx, other))

	require.NoError(t, m.CreateFeedback(ctx, &domain.Feedback{ProductID: 1, CustomerID: 1, OrderID: &mine.ID, Rating: 5}))
	require.NoError(t, m.CreateFeedback(ctx, &domain.Feedback{ProductID: 1, CustomerID: 1, OrderID: &other.ID, Rating: 3}))
	require.NoError(t, m.CreateFeedback(ctx, &domain.Feedback{ProductID: 1, CustomerID: 1, Rating: 4}))

	fbs, err := m.ListFeedbackByRetailer(ctx, 7)
	require.NoError(t, err)
	require.Len(t, fbs, 1)
	assert.Equal(t, 5, fbs[0].Rating)

	byProduct, err := m.ListFeedbackByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byProduct, 3)
}

func TestMemoryCache_OTP(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SaveOTP(ctx, "a@x.io", "111111", time.Minute))

	ok, err := c.ConsumeOTP(ctx, "a@x.io", "222222", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = c.ConsumeOTP(ctx, "a@x.io", "111111", 5)
	assert.True(t, ok)

	ok, _ = c.ConsumeOTP(ctx, "a@x.io", "111111", 5)
	assert.False(t, ok, "code is single use")

	require.NoError(t, c.SaveOTP(ctx, "a@x.io", "333333", time.Minute))
	now = now.Add(2 * time.Minute)
	ok, _ = c.ConsumeOTP(ctx, "a@x.io", "333333", 5)
	assert.False(t, ok, "expired code")
}

func TestMemoryCache_OTPAttemptLimit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.SaveOTP(ctx, "a@x.io", "111111", time.Minute))
	for i := 0; i < 3; i++ {
		ok, err := c.ConsumeOTP(ctx, "a@x.io", "999999", 3)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, _ := c.ConsumeOTP(ctx, "a@x.io", "111111", 3)
	assert.False(t, ok, "code burned after three misses")

	require.NoError(t, c.SaveOTP(ctx, "a@x.io", "222222", time.Minute))
	ok, _ = c.ConsumeOTP(ctx, "a@x.io", "999999", 3)
	assert.False(t, ok)
	ok, _ = c.ConsumeOTP(ctx, "a@x.io", "222222", 3)
	assert.True(t, ok, "resend resets the miss count")
}

func TestMemoryCache_IdempotencyAndSweep(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, _ := c.SetIdempotency(ctx, "k")
	assert.True(t, ok)
	ok, _ = c.SetIdempotency(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.ReleaseIdempotency(ctx, "k"))
	ok, _ = c.SetIdempotency(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, c.SaveOTP(ctx, "a@x.io", "1", time.Minute))
	now = now.Add(idempotencyKeyTTL + time.Second)
	c.Sweep()
	assert.Empty(t, c.keys)
	assert.Empty(t, c.otps)
}
