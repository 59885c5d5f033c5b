package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/livemart/internal/adapter/notify"
	"github.com/rl1809/livemart/internal/adapter/storage"
	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/core/service"
	"github.com/rl1809/livemart/pkg/logging"
)

const (
	initialStock  = 20
	totalRequests = 50
	// every order takes one unit of each product
	productCount = 3
)

func main() {
	ctx := context.Background()
	log := logging.New("warn")

	db := storage.NewMemoryAdapter()
	cache := storage.NewMemoryCache()
	dispatcher := notify.NewDispatcher(notify.NewLogSender(log), 4, totalRequests, log)
	defer dispatcher.Close()

	retailer := &domain.User{Name: "Stress Retailer", Email: "retailer@stress.test", Role: domain.RoleRetailer}
	if err := db.CreateUser(ctx, retailer); err != nil {
		fail("create retailer: %v", err)
	}

	lines := make([]domain.OrderLine, 0, productCount)
	for i := 0; i < productCount; i++ {
		p := &domain.Product{Name: fmt.Sprintf("stress-item-%d", i), BasePrice: 10}
		if err := db.CreateProduct(ctx, p); err != nil {
			fail("create product: %v", err)
		}
		if err := db.CreateInventory(ctx, &domain.RetailerInventory{RetailerID: retailer.ID, ProductID: p.ID, Price: 12, Stock: initialStock}); err != nil {
			fail("create inventory: %v", err)
		}
		lines = append(lines, domain.OrderLine{ProductID: p.ID, Quantity: 1, PriceAtPurchase: 12})
	}

	customers := make([]int64, totalRequests)
	for i := range customers {
		u := &domain.User{Name: fmt.Sprintf("customer-%d", i), Email: fmt.Sprintf("customer-%d@stress.test", i), Role: domain.RoleCustomer}
		if err := db.CreateUser(ctx, u); err != nil {
			fail("create customer: %v", err)
		}
		customers[i] = u.ID
	}

	orderService := service.NewOrderService(db, cache, dispatcher, log)

	var successCount, stockoutCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(customerID int64) {
			defer wg.Done()

			_, err := orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
				CustomerID:     customerID,
				RetailerID:     retailer.ID,
				TotalAmount:    12 * productCount,
				PaymentMode:    "UPI",
				Items:          lines,
				IdempotencyKey: uuid.NewString(),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				stockoutCount.Add(1)
			default:
				otherCount.Add(1)
				log.Error().Err(err).Int64("customer", customerID).Msg("unexpected order failure")
			}
		}(customers[i])
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	stockout := stockoutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d x %d products\n", initialStock, productCount)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of stock:     %d\n", stockout)
	fmt.Printf("Other failures:   %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if success == initialStock && stockout == totalRequests-initialStock {
		fmt.Printf("PASS: exactly %d orders succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d rejected, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, stockout)
		ok = false
	}

	rows, err := db.ListInventoryByRetailer(ctx, retailer.ID)
	if err != nil {
		fail("list inventory: %v", err)
	}
	for _, inv := range rows {
		if inv.Stock != 0 {
			fmt.Printf("FAIL: product %d has stock %d, expected 0\n", inv.ProductID, inv.Stock)
			ok = false
		}
	}
	if ok {
		fmt.Println("PASS: all stock depleted to 0, none negative")
	} else {
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
