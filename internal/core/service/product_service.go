package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

type ProductService struct {
	db port.DatabaseRepository
}

func NewProductService(db port.DatabaseRepository) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.db.ListProducts(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, domain.NotFound("product", id)
	}
	return p, nil
}

func (s *ProductService) Add(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, domain.Validation("name is required")
	}
	if p.BasePrice < 0 {
		return nil, domain.Validation("basePrice must not be negative")
	}
	if p.Image == "" {
		p.Image = domain.DefaultProductImage
	}
	p.ID = 0
	p.CreatedAt = time.Now().UTC()

	if err := s.db.CreateProduct(ctx, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}
