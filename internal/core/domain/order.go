package domain

import "time"

const (
	OrderStatusPlaced    = "placed"
	OrderStatusPacked    = "packed"
	OrderStatusDelivered = "delivered"
)

// Order status is free text; the constants above are the usual progression
// but any non-empty value is accepted on update.
type Order struct {
	ID          int64
	CustomerID  int64
	RetailerID  int64
	TotalAmount float64
	PaymentMode string
	OrderStatus string
	Items       []OrderItem
	CreatedAt   time.Time
}

type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Quantity        int
	PriceAtPurchase float64
}

// OrderLine is one requested item of a cart before it becomes an OrderItem.
type OrderLine struct {
	ProductID       int64
	Quantity        int
	PriceAtPurchase float64
}
