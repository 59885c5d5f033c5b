package domain

import "time"

const DefaultProductImage = "https://via.placeholder.com/150"

type Product struct {
	ID          int64
	Name        string
	Description string
	Image       string
	Category    string
	BasePrice   float64
	CreatedAt   time.Time
}
