package handler

import (
	"time"

	"github.com/rl1809/livemart/internal/core/domain"
)

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ShopName string `json:"shopName"`
	Location string `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type SessionResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// UserDTO never carries the password hash.
type UserDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ShopName  string    `json:"shopName,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		ShopName:  u.ShopName,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

type ProductDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	BasePrice   float64   `json:"basePrice"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProductDTO(p domain.Product) ProductDTO {
	return ProductDTO(p)
}

func (p ProductDTO) toDomain() domain.Product {
	return domain.Product(p)
}

type InventoryRequest struct {
	RetailerID int64   `json:"retailerId"`
	ProductID  int64   `json:"productId"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
}

type InventoryDTO struct {
	ID           int64     `json:"id"`
	RetailerID   int64     `json:"retailerId"`
	ProductID    int64     `json:"productId"`
	WholesalerID *int64    `json:"wholesalerId,omitempty"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toInventoryDTO(inv domain.RetailerInventory) InventoryDTO {
	return InventoryDTO{
		ID:           inv.ID,
		RetailerID:   inv.RetailerID,
		ProductID:    inv.ProductID,
		WholesalerID: inv.WholesalerID,
		Price:        inv.Price,
		Stock:        inv.Stock,
		UpdatedAt:    inv.UpdatedAt,
	}
}

type OrderItemRequest struct {
	ProductID       int64   `json:"productId"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

type OrderRequest struct {
	CustomerID  int64              `json:"customerId"`
	RetailerID  int64              `json:"retailerId"`
	TotalAmount float64            `json:"totalAmount"`
	PaymentMode string             `json:"paymentMode"`
	Items       []OrderItemRequest `json:"items"`
}

type OrderItemDTO struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"productId"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

type OrderDTO struct {
	ID          int64          `json:"orderId"`
	CustomerID  int64          `json:"customerId"`
	RetailerID  int64          `json:"retailerId"`
	TotalAmount float64        `json:"totalAmount"`
	PaymentMode string         `json:"paymentMode"`
	OrderStatus string         `json:"orderStatus"`
	Items       []OrderItemDTO `json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toOrderDTO(o domain.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	return OrderDTO{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		RetailerID:  o.RetailerID,
		TotalAmount: o.TotalAmount,
		PaymentMode: o.PaymentMode,
		OrderStatus: o.OrderStatus,
		Items:       items,
		CreatedAt:   o.CreatedAt,
	}
}

type WholesaleRequest struct {
	RetailerID int64 `json:"retailerId"`
	ProductID  int64 `json:"productId"`
	Quantity   int   `json:"quantity"`
}

type WholesaleDTO struct {
	ID         int64     `json:"id"`
	RetailerID int64     `json:"retailerId"`
	ProductID  int64     `json:"productId"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toWholesaleDTO(o domain.WholesaleOrder) WholesaleDTO {
	return WholesaleDTO{
		ID:         o.ID,
		RetailerID: o.RetailerID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}

type FeedbackRequest struct {
	ProductID  int64  `json:"productId"`
	CustomerID int64  `json:"customerId"`
	OrderID    *int64 `json:"orderId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

type FeedbackDTO struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"productId"`
	CustomerID int64     `json:"customerId"`
	OrderID    *int64    `json:"orderId,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toFeedbackDTO(fb domain.Feedback) FeedbackDTO {
	return FeedbackDTO(fb)
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
