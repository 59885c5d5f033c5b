package domain

import "time"

// RetailerInventory is the price/stock record a retailer keeps for one product.
// There is at most one row per (RetailerID, ProductID).
type RetailerInventory struct {
	ID           int64
	RetailerID   int64
	ProductID    int64
	WholesalerID *int64
	Price        float64
	Stock        int
	Version      int // bumped on every stock change
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
