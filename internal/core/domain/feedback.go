package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID         int64
	ProductID  int64
	CustomerID int64
	OrderID    *int64
	Rating     int
	Comment    string
	CreatedAt  time.Time
}
