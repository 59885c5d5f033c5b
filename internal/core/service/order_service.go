package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

var tracer = otel.Tracer("livemart/service")

type OrderService struct {
	db       port.DatabaseRepository
	cache    port.CacheRepository
	notifier port.Notifier
	log      zerolog.Logger
}

// NewOrderService wires the order flow. cache may be nil, which disables
// idempotency keys.
func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, notifier port.Notifier, log zerolog.Logger) *OrderService {
	return &OrderService{
		db:       db,
		cache:    cache,
		notifier: notifier,
		log:      log.With().Str("component", "order_service").Logger(),
	}
}

type PlaceOrderRequest struct {
	CustomerID     int64
	RetailerID     int64
	TotalAmount    float64
	PaymentMode    string
	Items          []domain.OrderLine
	IdempotencyKey string
}

func (r PlaceOrderRequest) validate() error {
	if r.CustomerID == 0 || r.RetailerID == 0 {
		return domain.Validation("customerId and retailerId are required")
	}
	if len(r.Items) == 0 {
		return domain.Validation("order must contain at least one item")
	}
	for i, item := range r.Items {
		if item.ProductID == 0 {
			return domain.Validation("item %d: productId is required", i)
		}
		if item.Quantity <= 0 {
			return domain.Validation("item %d: quantity must be positive", i)
		}
		if item.PriceAtPurchase < 0 {
			return domain.Validation("item %d: priceAtPurchase must not be negative", i)
		}
	}
	return nil
}

// PlaceOrder validates the cart against the retailer's inventory and persists
// the order. Stock is deducted item by item inside one transaction, so a
// failing item undoes the deductions made for the items before it.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			ordersRejected.WithLabelValues(rejectReason(err)).Inc()
		}
	}()

	if err := req.validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.cache != nil {
		key := "order:" + req.IdempotencyKey
		ok, setErr := s.cache.SetIdempotency(ctx, key)
		if setErr != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", setErr)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); relErr != nil {
				s.log.Warn().Err(relErr).Str("key", key).Msg("failed to release idempotency key")
			}
		}()
	}

	order := &domain.Order{
		CustomerID:  req.CustomerID,
		RetailerID:  req.RetailerID,
		TotalAmount: req.TotalAmount,
		PaymentMode: req.PaymentMode,
		OrderStatus: domain.OrderStatusPlaced,
		CreatedAt:   time.Now().UTC(),
	}

	var customer *domain.User
	err = s.db.WithTx(ctx, func(repo port.DatabaseRepository) error {
		var err error
		customer, err = repo.GetUser(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		if customer == nil {
			return domain.NotFound("customer", req.CustomerID)
		}
		retailer, err := repo.GetUser(ctx, req.RetailerID)
		if err != nil {
			return fmt.Errorf("get retailer: %w", err)
		}
		if retailer == nil {
			return domain.NotFound("retailer", req.RetailerID)
		}

		items := make([]domain.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			if err := deductLine(ctx, repo, req.RetailerID, line); err != nil {
				return err
			}
			items = append(items, domain.OrderItem{
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.PriceAtPurchase,
			})
		}
		order.Items = items

		return repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	ordersPlaced.Inc()
	s.log.Info().Int64("order_id", order.ID).Int("items", len(order.Items)).Msg("order placed")

	if customer.Email != "" {
		if err := s.notifier.SendOrderConfirmation(ctx, customer.Email, order.ID, order.TotalAmount); err != nil {
			s.log.Error().Err(err).Int64("order_id", order.ID).Str("email", customer.Email).Msg("failed to queue order confirmation")
		}
	}

	return order, nil
}

func deductLine(ctx context.Context, repo port.DatabaseRepository, retailerID int64, line domain.OrderLine) error {
	product, err := repo.GetProduct(ctx, line.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return domain.NotFound("product", line.ProductID)
	}

	inv, err := repo.GetInventory(ctx, retailerID, line.ProductID)
	if err != nil {
		return fmt.Errorf("get inventory: %w", err)
	}
	if inv == nil {
		return &domain.NotAvailableError{RetailerID: retailerID, ProductID: line.ProductID}
	}
	if inv.Stock < line.Quantity {
		return &domain.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity, Available: inv.Stock}
	}

	ok, err := repo.DecrementStock(ctx, retailerID, line.ProductID, line.Quantity)
	if err != nil {
		return fmt.Errorf("stock decrement failed: %w", err)
	}
	if !ok {
		return &domain.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity, Available: inv.Stock}
	}
	return nil
}

// UpdateOrderStatus sets the status to any non-empty value; no transition
// graph is enforced.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	if status == "" {
		return domain.Validation("status is required")
	}

	order, err := s.db.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return domain.NotFound("order", orderID)
	}

	if err := s.db.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	customer, err := s.db.GetUser(ctx, order.CustomerID)
	if err != nil {
		s.log.Error().Err(err).Int64("order_id", orderID).Msg("failed to load customer for status email")
		return nil
	}
	if customer == nil || customer.Email == "" {
		s.log.Warn().Int64("order_id", orderID).Msg("skipping status email: customer email is empty")
		return nil
	}
	if err := s.notifier.SendOrderStatusUpdate(ctx, customer.Email, orderID, status); err != nil {
		s.log.Error().Err(err).Int64("order_id", orderID).Str("email", customer.Email).Msg("failed to queue status update")
	}
	return nil
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.db.ListOrdersByCustomer(ctx, customerID)
}

func (s *OrderService) ListByRetailer(ctx context.Context, retailerID int64) ([]domain.Order, error) {
	return s.db.ListOrdersByRetailer(ctx, retailerID)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAvailable):
		return "not_available"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
