package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/livemart/internal/core/domain"
)

func TestApproveRequest_CreatesInventoryWithMarkup(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 50)

	wo, err := f.wholesale.RequestStock(f.ctx, retailer, product, 40)
	require.NoError(t, err)
	assert.Equal(t, domain.WholesaleStatusPending, wo.Status)

	require.NoError(t, f.wholesale.ApproveRequest(f.ctx, wo.ID))

	inv, err := f.db.GetInventory(f.ctx, retailer, product)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, 40, inv.Stock)
	assert.Equal(t, 60.0, inv.Price)

	stored, _ := f.db.GetWholesaleOrder(f.ctx, wo.ID)
	assert.Equal(t, domain.WholesaleStatusApproved, stored.Status)
}

func TestApproveRequest_AddsToExistingInventory(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 50)
	f.stock(t, retailer, product, 70, 5)

	wo, err := f.wholesale.RequestStock(f.ctx, retailer, product, 10)
	require.NoError(t, err)
	require.NoError(t, f.wholesale.ApproveRequest(f.ctx, wo.ID))

	inv, _ := f.db.GetInventory(f.ctx, retailer, product)
	assert.Equal(t, 15, inv.Stock)
	assert.Equal(t, 70.0, inv.Price, "existing price is kept")
}

func TestApproveRequest_RowInsertedConcurrently(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 50)
	f.stock(t, retailer, product, 70, 5)

	wo, err := f.wholesale.RequestStock(f.ctx, retailer, product, 10)
	require.NoError(t, err)

	db := &staleReadDB{MemoryAdapter: f.db}
	require.NoError(t, NewWholesaleService(db, zerolog.Nop()).ApproveRequest(f.ctx, wo.ID))
	assert.Equal(t, 2, db.attempts)

	inv, _ := f.db.GetInventory(f.ctx, retailer, product)
	assert.Equal(t, 15, inv.Stock)
	assert.Equal(t, 70.0, inv.Price)
	stored, _ := f.db.GetWholesaleOrder(f.ctx, wo.ID)
	assert.Equal(t, domain.WholesaleStatusApproved, stored.Status)
}

func TestApproveRequest_Twice(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 10)

	wo, err := f.wholesale.RequestStock(f.ctx, retailer, product, 7)
	require.NoError(t, err)

	require.NoError(t, f.wholesale.ApproveRequest(f.ctx, wo.ID))
	err = f.wholesale.ApproveRequest(f.ctx, wo.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, 7, f.stockOf(t, retailer, product))
}

func TestApproveRequest_Concurrent(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 10)

	wo, err := f.wholesale.RequestStock(f.ctx, retailer, product, 3)
	require.NoError(t, err)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.wholesale.ApproveRequest(f.ctx, wo.ID); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
	assert.Equal(t, 3, f.stockOf(t, retailer, product))
}

func TestApproveRequest_NotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.wholesale.ApproveRequest(f.ctx, 404), domain.ErrNotFound)
}

func TestRequestStock_Validation(t *testing.T) {
	f := newFixture(t)
	retailer := f.user(t, domain.RoleRetailer, "r@x.io")
	product := f.product(t, 10)

	_, err := f.wholesale.RequestStock(f.ctx, retailer, product, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.wholesale.RequestStock(f.ctx, retailer, product, -5)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.wholesale.RequestStock(f.ctx, 99, product, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.wholesale.RequestStock(f.ctx, retailer, 99, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWholesaleLists(t *testing.T) {
	f := newFixture(t)
	r1 := f.user(t, domain.RoleRetailer, "r1@x.io")
	r2 := f.user(t, domain.RoleRetailer, "r2@x.io")
	product := f.product(t, 10)

	a, _ := f.wholesale.RequestStock(f.ctx, r1, product, 1)
	_, _ = f.wholesale.RequestStock(f.ctx, r1, product, 2)
	_, _ = f.wholesale.RequestStock(f.ctx, r2, product, 3)
	require.NoError(t, f.wholesale.ApproveRequest(f.ctx, a.ID))

	pending, err := f.wholesale.ListPending(f.ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byR1, err := f.wholesale.ListByRetailer(f.ctx, r1)
	require.NoError(t, err)
	assert.Len(t, byR1, 2)
}

func TestMarkupPrice(t *testing.T) {
	assert.Equal(t, 60.0, markupPrice(50))
	assert.Equal(t, 12.0, markupPrice(10))
	assert.Equal(t, 0.12, markupPrice(0.1))
	assert.Equal(t, 23.99, markupPrice(19.99))
}
