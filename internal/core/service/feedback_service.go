package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

type FeedbackService struct {
	db port.DatabaseRepository
}

func NewFeedbackService(db port.DatabaseRepository) *FeedbackService {
	return &FeedbackService{db: db}
}

type AddFeedbackRequest struct {
	ProductID  int64
	CustomerID int64
	OrderID    *int64
	Rating     int
	Comment    string
}

func (s *FeedbackService) AddFeedback(ctx context.Context, req AddFeedbackRequest) (*domain.Feedback, error) {
	if req.ProductID == 0 || req.CustomerID == 0 {
		return nil, domain.Validation("productId and customerId are required")
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return nil, domain.Validation("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	product, err := s.db.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("product", req.ProductID)
	}
	customer, err := s.db.GetUser(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, domain.NotFound("customer", req.CustomerID)
	}
	if req.OrderID != nil {
		order, err := s.db.GetOrder(ctx, *req.OrderID)
		if err != nil {
			return nil, fmt.Errorf("get order: %w", err)
		}
		if order == nil {
			return nil, domain.NotFound("order", *req.OrderID)
		}
	}

	fb := &domain.Feedback{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return fb, nil
}

func (s *FeedbackService) ListByProduct(ctx context.Context, productID int64) ([]domain.Feedback, error) {
	return s.db.ListFeedbackByProduct(ctx, productID)
}

func (s *FeedbackService) ListByRetailer(ctx context.Context, retailerID int64) ([]domain.Feedback, error) {
	return s.db.ListFeedbackByRetailer(ctx, retailerID)
}
