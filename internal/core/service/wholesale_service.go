package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

// retail price of stock created by an approval is basePrice × 1.2
var wholesaleMarkup = decimal.RequireFromString("1.2")

func markupPrice(basePrice float64) float64 {
	return decimal.NewFromFloat(basePrice).Mul(wholesaleMarkup).Round(2).InexactFloat64()
}

type WholesaleService struct {
	db  port.DatabaseRepository
	log zerolog.Logger
}

func NewWholesaleService(db port.DatabaseRepository, log zerolog.Logger) *WholesaleService {
	return &WholesaleService{db: db, log: log.With().Str("component", "wholesale_service").Logger()}
}

func (s *WholesaleService) RequestStock(ctx context.Context, retailerID, productID int64, quantity int) (*domain.WholesaleOrder, error) {
	if quantity <= 0 {
		return nil, domain.Validation("quantity must be positive")
	}

	retailer, err := s.db.GetUser(ctx, retailerID)
	if err != nil {
		return nil, fmt.Errorf("get retailer: %w", err)
	}
	if retailer == nil {
		return nil, domain.NotFound("retailer", retailerID)
	}
	product, err := s.db.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("product", productID)
	}

	order := &domain.WholesaleOrder{
		RetailerID: retailerID,
		ProductID:  productID,
		Quantity:   quantity,
		Status:     domain.WholesaleStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateWholesaleOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create wholesale order: %w", err)
	}
	s.log.Info().Int64("wholesale_id", order.ID).Int64("retailer_id", retailerID).Msg("stock requested")
	return order, nil
}

// ApproveRequest moves a PENDING request to APPROVED and credits the
// retailer's inventory in the same transaction.
func (s *WholesaleService) ApproveRequest(ctx context.Context, orderID int64) (err error) {
	ctx, span := tracer.Start(ctx, "WholesaleService.ApproveRequest")
	defer span.End()

	err = withInventoryTx(ctx, s.db, func(repo port.DatabaseRepository) error {
		order, err := repo.GetWholesaleOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get wholesale order: %w", err)
		}
		if order == nil {
			return domain.NotFound("wholesale order", orderID)
		}
		if order.Status != domain.WholesaleStatusPending {
			return domain.ErrAlreadyProcessed
		}

		ok, err := repo.TransitionWholesaleOrder(ctx, orderID, domain.WholesaleStatusPending, domain.WholesaleStatusApproved)
		if err != nil {
			return fmt.Errorf("approve wholesale order: %w", err)
		}
		if !ok {
			return domain.ErrAlreadyProcessed
		}

		inv, err := repo.GetInventory(ctx, order.RetailerID, order.ProductID)
		if err != nil {
			return fmt.Errorf("get inventory: %w", err)
		}
		if inv != nil {
			return repo.IncrementStock(ctx, order.RetailerID, order.ProductID, order.Quantity)
		}

		product, err := repo.GetProduct(ctx, order.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return domain.NotFound("product", order.ProductID)
		}
		now := time.Now().UTC()
		return repo.CreateInventory(ctx, &domain.RetailerInventory{
			RetailerID: order.RetailerID,
			ProductID:  order.ProductID,
			Price:      markupPrice(product.BasePrice),
			Stock:      order.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	wholesaleApproved.Inc()
	s.log.Info().Int64("wholesale_id", orderID).Msg("wholesale request approved")
	return nil
}

func (s *WholesaleService) ListPending(ctx context.Context) ([]domain.WholesaleOrder, error) {
	return s.db.ListWholesaleOrdersByStatus(ctx, domain.WholesaleStatusPending)
}

func (s *WholesaleService) ListByRetailer(ctx context.Context, retailerID int64) ([]domain.WholesaleOrder, error) {
	return s.db.ListWholesaleOrdersByRetailer(ctx, retailerID)
}
