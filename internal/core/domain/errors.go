package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the services wraps exactly one of them.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrDuplicate  = errors.New("duplicate")
)

var (
	ErrNotAvailable      = fmt.Errorf("%w: product not available in this shop", ErrNotFound)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrAlreadyProcessed  = fmt.Errorf("%w: order is already processed", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email is already registered", ErrDuplicate)
	ErrDuplicateRequest  = fmt.Errorf("%w: duplicate request", ErrDuplicate)
	ErrInventoryExists   = fmt.Errorf("%w: inventory row already exists", ErrDuplicate)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrIncorrectPassword = fmt.Errorf("%w: incorrect password", ErrValidation)
	ErrInvalidOTP        = fmt.Errorf("%w: invalid otp", ErrValidation)
)

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotAvailableError reports a product the retailer does not stock.
type NotAvailableError struct {
	RetailerID int64
	ProductID  int64
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("product %d not available from retailer %d", e.ProductID, e.RetailerID)
}

func (e *NotAvailableError) Unwrap() error { return ErrNotAvailable }

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
