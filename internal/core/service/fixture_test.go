package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/livemart/internal/adapter/storage"
	"github.com/rl1809/livemart/internal/core/domain"
)

type sentMail struct {
	kind    string
	email   string
	orderID int64
	amount  float64
	status  string
	otp     string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) record(m sentMail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return n.err
}

func (n *recordingNotifier) SendOrderConfirmation(ctx context.Context, email string, orderID int64, amount float64) error {
	return n.record(sentMail{kind: "confirmation", email: email, orderID: orderID, amount: amount})
}

func (n *recordingNotifier) SendOrderStatusUpdate(ctx context.Context, email string, orderID int64, status string) error {
	return n.record(sentMail{kind: "status", email: email, orderID: orderID, status: status})
}

func (n *recordingNotifier) SendOTP(ctx context.Context, email, otp string) error {
	return n.record(sentMail{kind: "otp", email: email, otp: otp})
}

func (n *recordingNotifier) messages() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

// plainHasher stores passwords with a prefix; good enough to test the flow.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (plainHasher) Verify(plain, hash string) bool    { return hash == "hashed:"+plain }

type staticTokens struct{ err error }

func (s staticTokens) Issue(user domain.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-" + user.Email, nil
}

type fixture struct {
	ctx      context.Context
	db       *storage.MemoryAdapter
	cache    *storage.MemoryCache
	notifier *recordingNotifier

	orders    *OrderService
	inventory *InventoryService
	wholesale *WholesaleService
	feedback  *FeedbackService
	products  *ProductService
	auth      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache()
	notifier := &recordingNotifier{}
	log := zerolog.Nop()

	return &fixture{
		ctx:       context.Background(),
		db:        db,
		cache:     cache,
		notifier:  notifier,
		orders:    NewOrderService(db, cache, notifier, log),
		inventory: NewInventoryService(db, log),
		wholesale: NewWholesaleService(db, log),
		feedback:  NewFeedbackService(db),
		products:  NewProductService(db),
		auth:      NewAuthService(db, cache, plainHasher{}, staticTokens{}, notifier, time.Minute, log),
	}
}

func (f *fixture) user(t *testing.T, role domain.Role, email string) int64 {
	t.Helper()
	u := &domain.User{Name: string(role), Email: email, Role: role, PasswordHash: "hashed:pw"}
	require.NoError(t, f.db.CreateUser(f.ctx, u))
	return u.ID
}

func (f *fixture) product(t *testing.T, basePrice float64) int64 {
	t.Helper()
	p, err := f.products.Add(f.ctx, domain.Product{Name: "item", BasePrice: basePrice})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) stock(t *testing.T, retailerID, productID int64, price float64, qty int) {
	t.Helper()
	_, err := f.inventory.AddOrRestock(f.ctx, retailerID, productID, price, qty)
	require.NoError(t, err)
}

func (f *fixture) stockOf(t *testing.T, retailerID, productID int64) int {
	t.Helper()
	inv, err := f.db.GetInventory(f.ctx, retailerID, productID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return inv.Stock
}

var errNotifierDown = errors.New("notifier down")
