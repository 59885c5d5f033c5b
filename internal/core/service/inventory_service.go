package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

type InventoryService struct {
	db  port.DatabaseRepository
	log zerolog.Logger
}

func NewInventoryService(db port.DatabaseRepository, log zerolog.Logger) *InventoryService {
	return &InventoryService{db: db, log: log.With().Str("component", "inventory_service").Logger()}
}

// AddOrRestock adds stockDelta to the retailer's row for the product and
// overwrites its price, creating the row on first use. A negative delta
// removes stock but may not take the row below zero. created reports
// whether a new row was inserted.
func (s *InventoryService) AddOrRestock(ctx context.Context, retailerID, productID int64, price float64, stockDelta int) (created bool, err error) {
	if retailerID == 0 || productID == 0 {
		return false, domain.Validation("retailerId and productId are required")
	}
	if price < 0 {
		return false, domain.Validation("price must not be negative")
	}

	err = withInventoryTx(ctx, s.db, func(repo port.DatabaseRepository) error {
		created = false
		inv, err := repo.GetInventory(ctx, retailerID, productID)
		if err != nil {
			return fmt.Errorf("get inventory: %w", err)
		}
		if inv != nil {
			if inv.Stock+stockDelta < 0 {
				return domain.Validation("stock cannot go below zero: have %d, delta %d", inv.Stock, stockDelta)
			}
			if err := repo.IncrementStock(ctx, retailerID, productID, stockDelta); err != nil {
				return fmt.Errorf("increment stock: %w", err)
			}
			return repo.SetPrice(ctx, retailerID, productID, price)
		}
		if stockDelta < 0 {
			return domain.Validation("initial stock must not be negative")
		}

		retailer, err := repo.GetUser(ctx, retailerID)
		if err != nil {
			return fmt.Errorf("get retailer: %w", err)
		}
		if retailer == nil {
			return domain.NotFound("retailer", retailerID)
		}
		product, err := repo.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return domain.NotFound("product", productID)
		}

		now := time.Now().UTC()
		created = true
		return repo.CreateInventory(ctx, &domain.RetailerInventory{
			RetailerID: retailerID,
			ProductID:  productID,
			Price:      price,
			Stock:      stockDelta,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return false, err
	}

	s.log.Info().Int64("retailer_id", retailerID).Int64("product_id", productID).
		Int("delta", stockDelta).Bool("created", created).Msg("inventory restocked")
	return created, nil
}

func (s *InventoryService) ListInventory(ctx context.Context, retailerID int64) ([]domain.RetailerInventory, error) {
	return s.db.ListInventoryByRetailer(ctx, retailerID)
}

// withInventoryTx runs fn in a transaction, rerunning it once if another
// writer inserted the same (retailer, product) row first. The rerun finds
// that row and takes the update path.
func withInventoryTx(ctx context.Context, db port.DatabaseRepository, fn func(repo port.DatabaseRepository) error) error {
	err := db.WithTx(ctx, fn)
	if errors.Is(err, domain.ErrInventoryExists) {
		err = db.WithTx(ctx, fn)
	}
	return err
}
