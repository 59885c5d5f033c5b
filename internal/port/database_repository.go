package port

import (
	"context"

	"github.com/rl1809/livemart/internal/core/domain"
)

// Getters return (nil, nil) when the row does not exist.

type UserRepository interface {
	// CreateUser inserts the user and sets its ID; returns domain.ErrEmailTaken on a duplicate email
	CreateUser(ctx context.Context, user *domain.User) error

	GetUser(ctx context.Context, id int64) (*domain.User, error)

	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type InventoryRepository interface {
	// GetInventory retrieves the (retailer, product) row; inside WithTx the row is locked
	GetInventory(ctx context.Context, retailerID, productID int64) (*domain.RetailerInventory, error)

	CreateInventory(ctx context.Context, inv *domain.RetailerInventory) error

	// DecrementStock atomically decreases stock, returns false if insufficient
	DecrementStock(ctx context.Context, retailerID, productID int64, quantity int) (bool, error)

	// IncrementStock adds quantity to an existing row
	IncrementStock(ctx context.Context, retailerID, productID int64, quantity int) error

	SetPrice(ctx context.Context, retailerID, productID int64, price float64) error

	ListInventoryByRetailer(ctx context.Context, retailerID int64) ([]domain.RetailerInventory, error)
}

type OrderRepository interface {
	// CreateOrder persists the order together with its items and sets their IDs
	CreateOrder(ctx context.Context, order *domain.Order) error

	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	UpdateOrderStatus(ctx context.Context, id int64, status string) error

	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)

	ListOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.Order, error)
}

type WholesaleRepository interface {
	CreateWholesaleOrder(ctx context.Context, order *domain.WholesaleOrder) error

	// GetWholesaleOrder retrieves a request; inside WithTx the row is locked
	GetWholesaleOrder(ctx context.Context, id int64) (*domain.WholesaleOrder, error)

	// TransitionWholesaleOrder moves the request from one status to another, returns false if it was not in from
	TransitionWholesaleOrder(ctx context.Context, id int64, from, to domain.WholesaleStatus) (bool, error)

	ListWholesaleOrdersByStatus(ctx context.Context, status domain.WholesaleStatus) ([]domain.WholesaleOrder, error)

	ListWholesaleOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.WholesaleOrder, error)
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, fb *domain.Feedback) error

	ListFeedbackByProduct(ctx context.Context, productID int64) ([]domain.Feedback, error)

	// ListFeedbackByRetailer returns feedback whose linked order belongs to the retailer
	ListFeedbackByRetailer(ctx context.Context, retailerID int64) ([]domain.Feedback, error)
}

type DatabaseRepository interface {
	UserRepository
	ProductRepository
	InventoryRepository
	OrderRepository
	WholesaleRepository
	FeedbackRepository

	// WithTx runs fn in one transaction. fn must use the repository it is given;
	// any error returned by fn rolls back every write made through it.
	WithTx(ctx context.Context, fn func(repo DatabaseRepository) error) error
}
