package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

type inventoryKey struct {
	retailerID int64
	productID  int64
}

type memoryData struct {
	users      map[int64]domain.User
	products   map[int64]domain.Product
	inventory  map[inventoryKey]domain.RetailerInventory
	orders     map[int64]domain.Order
	wholesale  map[int64]domain.WholesaleOrder
	feedback   map[int64]domain.Feedback
	emailIndex map[string]int64

	nextUserID      int64
	nextProductID   int64
	nextInventoryID int64
	nextOrderID     int64
	nextItemID      int64
	nextWholesaleID int64
	nextFeedbackID  int64
}

// MemoryAdapter keeps every table in process memory. Transactions hold the
// write lock for their whole duration, so they are serializable, and every
// write records an undo step that is replayed if the transaction fails.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data *memoryData
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: &memoryData{
		users:      make(map[int64]domain.User),
		products:   make(map[int64]domain.Product),
		inventory:  make(map[inventoryKey]domain.RetailerInventory),
		orders:     make(map[int64]domain.Order),
		wholesale:  make(map[int64]domain.WholesaleOrder),
		feedback:   make(map[int64]domain.Feedback),
		emailIndex: make(map[string]int64),
	}}
}

func (m *MemoryAdapter) WithTx(ctx context.Context, fn func(repo port.DatabaseRepository) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{d: m.data}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
		if err != nil {
			tx.rollback()
		}
	}()
	return fn(tx)
}

func (m *MemoryAdapter) read(fn func(tx *memoryTx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryTx{d: m.data})
}

func (m *MemoryAdapter) write(ctx context.Context, fn func(tx *memoryTx) error) error {
	return m.WithTx(ctx, func(repo port.DatabaseRepository) error {
		return fn(repo.(*memoryTx))
	})
}

func (m *MemoryAdapter) CreateUser(ctx context.Context, user *domain.User) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateUser(ctx, user) })
}

func (m *MemoryAdapter) GetUser(ctx context.Context, id int64) (u *domain.User, err error) {
	err = m.read(func(tx *memoryTx) error { u, err = tx.GetUser(ctx, id); return err })
	return u, err
}

func (m *MemoryAdapter) GetUserByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	err = m.read(func(tx *memoryTx) error { u, err = tx.GetUserByEmail(ctx, email); return err })
	return u, err
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, p *domain.Product) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateProduct(ctx, p) })
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id int64) (p *domain.Product, err error) {
	err = m.read(func(tx *memoryTx) error { p, err = tx.GetProduct(ctx, id); return err })
	return p, err
}

func (m *MemoryAdapter) ListProducts(ctx context.Context) (ps []domain.Product, err error) {
	err = m.read(func(tx *memoryTx) error { ps, err = tx.ListProducts(ctx); return err })
	return ps, err
}

func (m *MemoryAdapter) GetInventory(ctx context.Context, retailerID, productID int64) (inv *domain.RetailerInventory, err error) {
	err = m.read(func(tx *memoryTx) error { inv, err = tx.GetInventory(ctx, retailerID, productID); return err })
	return inv, err
}

func (m *MemoryAdapter) CreateInventory(ctx context.Context, inv *domain.RetailerInventory) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateInventory(ctx, inv) })
}

func (m *MemoryAdapter) DecrementStock(ctx context.Context, retailerID, productID int64, quantity int) (ok bool, err error) {
	err = m.write(ctx, func(tx *memoryTx) error {
		ok, err = tx.DecrementStock(ctx, retailerID, productID, quantity)
		return err
	})
	return ok, err
}

func (m *MemoryAdapter) IncrementStock(ctx context.Context, retailerID, productID int64, quantity int) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.IncrementStock(ctx, retailerID, productID, quantity) })
}

func (m *MemoryAdapter) SetPrice(ctx context.Context, retailerID, productID int64, price float64) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.SetPrice(ctx, retailerID, productID, price) })
}

func (m *MemoryAdapter) ListInventoryByRetailer(ctx context.Context, retailerID int64) (rows []domain.RetailerInventory, err error) {
	err = m.read(func(tx *memoryTx) error { rows, err = tx.ListInventoryByRetailer(ctx, retailerID); return err })
	return rows, err
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateOrder(ctx, order) })
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id int64) (o *domain.Order, err error) {
	err = m.read(func(tx *memoryTx) error { o, err = tx.GetOrder(ctx, id); return err })
	return o, err
}

func (m *MemoryAdapter) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.UpdateOrderStatus(ctx, id, status) })
}

func (m *MemoryAdapter) ListOrdersByCustomer(ctx context.Context, customerID int64) (os []domain.Order, err error) {
	err = m.read(func(tx *memoryTx) error { os, err = tx.ListOrdersByCustomer(ctx, customerID); return err })
	return os, err
}

func (m *MemoryAdapter) ListOrdersByRetailer(ctx context.Context, retailerID int64) (os []domain.Order, err error) {
	err = m.read(func(tx *memoryTx) error { os, err = tx.ListOrdersByRetailer(ctx, retailerID); return err })
	return os, err
}

func (m *MemoryAdapter) CreateWholesaleOrder(ctx context.Context, order *domain.WholesaleOrder) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateWholesaleOrder(ctx, order) })
}

func (m *MemoryAdapter) GetWholesaleOrder(ctx context.Context, id int64) (o *domain.WholesaleOrder, err error) {
	err = m.read(func(tx *memoryTx) error { o, err = tx.GetWholesaleOrder(ctx, id); return err })
	return o, err
}

func (m *MemoryAdapter) TransitionWholesaleOrder(ctx context.Context, id int64, from, to domain.WholesaleStatus) (ok bool, err error) {
	err = m.write(ctx, func(tx *memoryTx) error {
		ok, err = tx.TransitionWholesaleOrder(ctx, id, from, to)
		return err
	})
	return ok, err
}

func (m *MemoryAdapter) ListWholesaleOrdersByStatus(ctx context.Context, status domain.WholesaleStatus) (os []domain.WholesaleOrder, err error) {
	err = m.read(func(tx *memoryTx) error { os, err = tx.ListWholesaleOrdersByStatus(ctx, status); return err })
	return os, err
}

func (m *MemoryAdapter) ListWholesaleOrdersByRetailer(ctx context.Context, retailerID int64) (os []domain.WholesaleOrder, err error) {
	err = m.read(func(tx *memoryTx) error { os, err = tx.ListWholesaleOrdersByRetailer(ctx, retailerID); return err })
	return os, err
}

func (m *MemoryAdapter) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateFeedback(ctx, fb) })
}

func (m *MemoryAdapter) ListFeedbackByProduct(ctx context.Context, productID int64) (fbs []domain.Feedback, err error) {
	err = m.read(func(tx *memoryTx) error { fbs, err = tx.ListFeedbackByProduct(ctx, productID); return err })
	return fbs, err
}

func (m *MemoryAdapter) ListFeedbackByRetailer(ctx context.Context, retailerID int64) (fbs []domain.Feedback, err error) {
	err = m.read(func(tx *memoryTx) error { fbs, err = tx.ListFeedbackByRetailer(ctx, retailerID); return err })
	return fbs, err
}

// memoryTx operates on the maps directly; the caller holds the adapter lock.
type memoryTx struct {
	d    *memoryData
	undo []func()
}

func (tx *memoryTx) onRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memoryTx) WithTx(ctx context.Context, fn func(repo port.DatabaseRepository) error) error {
	return fn(tx)
}

func (tx *memoryTx) CreateUser(ctx context.Context, user *domain.User) error {
	if _, exists := tx.d.emailIndex[user.Email]; exists {
		return domain.ErrEmailTaken
	}
	tx.d.nextUserID++
	user.ID = tx.d.nextUserID
	tx.d.users[user.ID] = *user
	tx.d.emailIndex[user.Email] = user.ID

	id, email := user.ID, user.Email
	tx.onRollback(func() {
		delete(tx.d.users, id)
		delete(tx.d.emailIndex, email)
	})
	return nil
}

func (tx *memoryTx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := tx.d.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (tx *memoryTx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, ok := tx.d.emailIndex[email]
	if !ok {
		return nil, nil
	}
	return tx.GetUser(ctx, id)
}

func (tx *memoryTx) CreateProduct(ctx context.Context, p *domain.Product) error {
	tx.d.nextProductID++
	p.ID = tx.d.nextProductID
	tx.d.products[p.ID] = *p

	id := p.ID
	tx.onRollback(func() { delete(tx.d.products, id) })
	return nil
}

func (tx *memoryTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := tx.d.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (tx *memoryTx) ListProducts(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(tx.d.products))
	for _, p := range tx.d.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memoryTx) GetInventory(ctx context.Context, retailerID, productID int64) (*domain.RetailerInventory, error) {
	inv, ok := tx.d.inventory[inventoryKey{retailerID, productID}]
	if !ok {
		return nil, nil
	}
	inv = copyInventory(inv)
	return &inv, nil
}

func (tx *memoryTx) CreateInventory(ctx context.Context, inv *domain.RetailerInventory) error {
	key := inventoryKey{inv.RetailerID, inv.ProductID}
	if _, exists := tx.d.inventory[key]; exists {
		return fmt.Errorf("retailer %d product %d: %w", inv.RetailerID, inv.ProductID, domain.ErrInventoryExists)
	}
	tx.d.nextInventoryID++
	inv.ID = tx.d.nextInventoryID
	tx.d.inventory[key] = copyInventory(*inv)

	tx.onRollback(func() { delete(tx.d.inventory, key) })
	return nil
}

// mutateInventory applies fn to the row and records the previous value.
func (tx *memoryTx) mutateInventory(retailerID, productID int64, fn func(inv *domain.RetailerInventory) bool) (bool, error) {
	key := inventoryKey{retailerID, productID}
	prev, ok := tx.d.inventory[key]
	if !ok {
		return false, fmt.Errorf("inventory for retailer %d product %d: %w", retailerID, productID, errNoRows)
	}
	next := prev
	if !fn(&next) {
		return false, nil
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	tx.d.inventory[key] = next

	tx.onRollback(func() { tx.d.inventory[key] = prev })
	return true, nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, retailerID, productID int64, quantity int) (bool, error) {
	key := inventoryKey{retailerID, productID}
	if _, ok := tx.d.inventory[key]; !ok {
		return false, nil
	}
	return tx.mutateInventory(retailerID, productID, func(inv *domain.RetailerInventory) bool {
		if inv.Stock < quantity {
			return false
		}
		inv.Stock -= quantity
		return true
	})
}

func (tx *memoryTx) IncrementStock(ctx context.Context, retailerID, productID int64, quantity int) error {
	_, err := tx.mutateInventory(retailerID, productID, func(inv *domain.RetailerInventory) bool {
		inv.Stock += quantity
		return true
	})
	return err
}

func (tx *memoryTx) SetPrice(ctx context.Context, retailerID, productID int64, price float64) error {
	_, err := tx.mutateInventory(retailerID, productID, func(inv *domain.RetailerInventory) bool {
		inv.Price = price
		return true
	})
	return err
}

func (tx *memoryTx) ListInventoryByRetailer(ctx context.Context, retailerID int64) ([]domain.RetailerInventory, error) {
	out := make([]domain.RetailerInventory, 0)
	for _, inv := range tx.d.inventory {
		if inv.RetailerID == retailerID {
			out = append(out, copyInventory(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memoryTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx.d.nextOrderID++
	order.ID = tx.d.nextOrderID
	for i := range order.Items {
		tx.d.nextItemID++
		order.Items[i].ID = tx.d.nextItemID
		order.Items[i].OrderID = order.ID
	}
	tx.d.orders[order.ID] = copyOrder(*order)

	id := order.ID
	tx.onRollback(func() { delete(tx.d.orders, id) })
	return nil
}

func (tx *memoryTx) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, ok := tx.d.orders[id]
	if !ok {
		return nil, nil
	}
	o = copyOrder(o)
	return &o, nil
}

func (tx *memoryTx) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	prev, ok := tx.d.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, errNoRows)
	}
	next := prev
	next.OrderStatus = status
	tx.d.orders[id] = next

	tx.onRollback(func() { tx.d.orders[id] = prev })
	return nil
}

func (tx *memoryTx) listOrders(match func(o domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range tx.d.orders {
		if match(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *memoryTx) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return tx.listOrders(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (tx *memoryTx) ListOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.Order, error) {
	return tx.listOrders(func(o domain.Order) bool { return o.RetailerID == retailerID }), nil
}

func (tx *memoryTx) CreateWholesaleOrder(ctx context.Context, order *domain.WholesaleOrder) error {
	tx.d.nextWholesaleID++
	order.ID = tx.d.nextWholesaleID
	tx.d.wholesale[order.ID] = *order

	id := order.ID
	tx.onRollback(func() { delete(tx.d.wholesale, id) })
	return nil
}

func (tx *memoryTx) GetWholesaleOrder(ctx context.Context, id int64) (*domain.WholesaleOrder, error) {
	o, ok := tx.d.wholesale[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (tx *memoryTx) TransitionWholesaleOrder(ctx context.Context, id int64, from, to domain.WholesaleStatus) (bool, error) {
	prev, ok := tx.d.wholesale[id]
	if !ok || prev.Status != from {
		return false, nil
	}
	next := prev
	next.Status = to
	tx.d.wholesale[id] = next

	tx.onRollback(func() { tx.d.wholesale[id] = prev })
	return true, nil
}

func (tx *memoryTx) listWholesale(match func(o domain.WholesaleOrder) bool) []domain.WholesaleOrder {
	out := make([]domain.WholesaleOrder, 0)
	for _, o := range tx.d.wholesale {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *memoryTx) ListWholesaleOrdersByStatus(ctx context.Context, status domain.WholesaleStatus) ([]domain.WholesaleOrder, error) {
	return tx.listWholesale(func(o domain.WholesaleOrder) bool { return o.Status == status }), nil
}

func (tx *memoryTx) ListWholesaleOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.WholesaleOrder, error) {
	return tx.listWholesale(func(o domain.WholesaleOrder) bool { return o.RetailerID == retailerID }), nil
}

func (tx *memoryTx) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	tx.d.nextFeedbackID++
	fb.ID = tx.d.nextFeedbackID
	tx.d.feedback[fb.ID] = copyFeedback(*fb)

	id := fb.ID
	tx.onRollback(func() { delete(tx.d.feedback, id) })
	return nil
}

func (tx *memoryTx) listFeedback(match func(fb domain.Feedback) bool) []domain.Feedback {
	out := make([]domain.Feedback, 0)
	for _, fb := range tx.d.feedback {
		if match(fb) {
			out = append(out, copyFeedback(fb))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *memoryTx) ListFeedbackByProduct(ctx context.Context, productID int64) ([]domain.Feedback, error) {
	return tx.listFeedback(func(fb domain.Feedback) bool { return fb.ProductID == productID }), nil
}

func (tx *memoryTx) ListFeedbackByRetailer(ctx context.Context, retailerID int64) ([]domain.Feedback, error) {
	return tx.listFeedback(func(fb domain.Feedback) bool {
		if fb.OrderID == nil {
			return false
		}
		o, ok := tx.d.orders[*fb.OrderID]
		return ok && o.RetailerID == retailerID
	}), nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

func copyInventory(inv domain.RetailerInventory) domain.RetailerInventory {
	inv.WholesalerID = copyID(inv.WholesalerID)
	return inv
}

func copyFeedback(fb domain.Feedback) domain.Feedback {
	fb.OrderID = copyID(fb.OrderID)
	return fb
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
