package domain

import "time"

type WholesaleStatus string

const (
	WholesaleStatusPending  WholesaleStatus = "PENDING"
	WholesaleStatusApproved WholesaleStatus = "APPROVED"
)

type WholesaleOrder struct {
	ID         int64
	RetailerID int64
	ProductID  int64
	Quantity   int
	Status     WholesaleStatus
	CreatedAt  time.Time
}
