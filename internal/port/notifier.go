package port

import (
	"context"

	"github.com/rl1809/livemart/internal/core/domain"
)

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email string, orderID int64, amount float64) error
	SendOrderStatusUpdate(ctx context.Context, email string, orderID int64, status string) error
	SendOTP(ctx context.Context, email, otp string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}
