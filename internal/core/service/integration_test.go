package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rl1809/livemart/internal/adapter/storage"
	"github.com/rl1809/livemart/internal/core/domain"
)

type integrationEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	db      *storage.MySQLAdapter
	cleanup func()
}

func setupIntegrationEnv(t *testing.T) *integrationEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/livemart?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	return &integrationEnv{
		redis: rdb,
		mysql: db,
		cache: storage.NewRedisAdapter(rdb),
		db:    storage.NewMySQLAdapter(db),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

// seed creates a customer, a retailer and one stocked product per entry in stocks.
func (env *integrationEnv) seed(t *testing.T, ctx context.Context, stocks ...int) (customerID, retailerID int64, productIDs []int64) {
	t.Helper()
	now := time.Now().UTC()
	customer := &domain.User{Name: "buyer", Email: uuid.NewString() + "@it.local", PasswordHash: "x", Role: domain.RoleCustomer, CreatedAt: now}
	retailer := &domain.User{Name: "shop", Email: uuid.NewString() + "@it.local", PasswordHash: "x", Role: domain.RoleRetailer, CreatedAt: now}
	for _, u := range []*domain.User{customer, retailer} {
		if err := env.db.CreateUser(ctx, u); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	for _, stock := range stocks {
		p := &domain.Product{Name: "it-item", Image: domain.DefaultProductImage, BasePrice: 10, CreatedAt: now}
		if err := env.db.CreateProduct(ctx, p); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		inv := &domain.RetailerInventory{RetailerID: retailer.ID, ProductID: p.ID, Price: 12, Stock: stock, CreatedAt: now, UpdatedAt: now}
		if err := env.db.CreateInventory(ctx, inv); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		productIDs = append(productIDs, p.ID)
	}
	return customer.ID, retailer.ID, productIDs
}

func TestIntegration_ConcurrentOrders(t *testing.T) {
	env := setupIntegrationEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialStock := 10
	customer, retailer, products := env.seed(t, ctx, initialStock)
	svc := NewOrderService(env.db, env.cache, &recordingNotifier{}, zerolog.Nop())

	var successCount atomic.Int32
	var wg sync.WaitGroup
	totalRequests := 20

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
				CustomerID:     customer,
				RetailerID:     retailer,
				Items:          []domain.OrderLine{{ProductID: products[0], Quantity: 1, PriceAtPurchase: 12}},
				IdempotencyKey: uuid.NewString(),
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successful orders, got %d", initialStock, successCount.Load())
	}

	inv, err := env.db.GetInventory(ctx, retailer, products[0])
	if err != nil {
		t.Fatalf("get inventory failed: %v", err)
	}
	if inv.Stock != 0 {
		t.Errorf("expected stock 0, got %d", inv.Stock)
	}

	orders, err := env.db.ListOrdersByRetailer(ctx, retailer)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != initialStock {
		t.Errorf("expected %d orders in MySQL, got %d", initialStock, len(orders))
	}
}

func TestIntegration_RollbackOnLaterItemFailure(t *testing.T) {
	env := setupIntegrationEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customer, retailer, products := env.seed(t, ctx, 5, 1)
	svc := NewOrderService(env.db, env.cache, &recordingNotifier{}, zerolog.Nop())

	_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID: customer,
		RetailerID: retailer,
		Items: []domain.OrderLine{
			{ProductID: products[0], Quantity: 2},
			{ProductID: products[1], Quantity: 3},
		},
	})
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	first, _ := env.db.GetInventory(ctx, retailer, products[0])
	if first.Stock != 5 {
		t.Errorf("expected first item stock 5 after rollback, got %d", first.Stock)
	}
	orders, _ := env.db.ListOrdersByCustomer(ctx, customer)
	if len(orders) != 0 {
		t.Errorf("expected no orders, got %d", len(orders))
	}
}

func TestIntegration_IdempotencyPreventsDoubleOrder(t *testing.T) {
	env := setupIntegrationEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	customer, retailer, products := env.seed(t, ctx, 10)
	svc := NewOrderService(env.db, env.cache, &recordingNotifier{}, zerolog.Nop())

	req := PlaceOrderRequest{
		CustomerID:     customer,
		RetailerID:     retailer,
		Items:          []domain.OrderLine{{ProductID: products[0], Quantity: 1}},
		IdempotencyKey: "same-request-id-" + uuid.NewString(),
	}
	if _, err := svc.PlaceOrder(ctx, req); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	_, err := svc.PlaceOrder(ctx, req)
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}

	inv, _ := env.db.GetInventory(ctx, retailer, products[0])
	if inv.Stock != 9 {
		t.Errorf("expected stock 9, got %d", inv.Stock)
	}
}
