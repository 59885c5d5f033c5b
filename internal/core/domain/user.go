package domain

import "time"

type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleRetailer   Role = "RETAILER"
	RoleWholesaler Role = "WHOLESALER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleWholesaler:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ShopName     string
	Location     string
	CreatedAt    time.Time
}
