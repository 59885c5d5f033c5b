package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

const mysqlDuplicateEntry = 1062

var errNoRows = errors.New("no rows affected")

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLAdapter struct {
	db *sql.DB
	q  queryer
	// inTx makes row reads take FOR UPDATE locks
	inTx bool
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, q: db}
}

func (m *MySQLAdapter) WithTx(ctx context.Context, fn func(repo port.DatabaseRepository) error) error {
	if m.inTx {
		return fn(m)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&MySQLAdapter{db: m.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) forUpdate() string {
	if m.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errNoRows
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// users

const userColumns = `id, name, email, password_hash, role, shop_name, location, created_at`

func (m *MySQLAdapter) CreateUser(ctx context.Context, user *domain.User) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, shop_name, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.ShopName, user.Location, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	return err
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.ShopName, &u.Location, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (m *MySQLAdapter) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(m.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(m.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// products

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p *domain.Product) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO products (name, description, image, category, base_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Image, p.Category, p.BasePrice, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID, err = result.LastInsertId()
	return err
}

const productColumns = `id, name, description, image, category, base_price, created_at`

func (m *MySQLAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := m.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Category, &p.BasePrice, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Category, &p.BasePrice, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// inventory

const inventoryColumns = `id, retailer_id, product_id, wholesaler_id, price, stock, version, created_at, updated_at`

func scanInventory(row interface{ Scan(...any) error }) (domain.RetailerInventory, error) {
	var inv domain.RetailerInventory
	var wholesaler sql.NullInt64
	err := row.Scan(&inv.ID, &inv.RetailerID, &inv.ProductID, &wholesaler, &inv.Price, &inv.Stock,
		&inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	inv.WholesalerID = idPtr(wholesaler)
	return inv, err
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, retailerID, productID int64) (*domain.RetailerInventory, error) {
	inv, err := scanInventory(m.q.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM retailer_inventory WHERE retailer_id = ? AND product_id = ?`+m.forUpdate(),
		retailerID, productID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return &inv, nil
}

func (m *MySQLAdapter) CreateInventory(ctx context.Context, inv *domain.RetailerInventory) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO retailer_inventory (retailer_id, product_id, wholesaler_id, price, stock, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.RetailerID, inv.ProductID, nullableID(inv.WholesalerID), inv.Price, inv.Stock, inv.Version,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("retailer %d product %d: %w", inv.RetailerID, inv.ProductID, domain.ErrInventoryExists)
		}
		return fmt.Errorf("insert inventory: %w", err)
	}
	inv.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) DecrementStock(ctx context.Context, retailerID, productID int64, quantity int) (bool, error) {
	result, err := m.q.ExecContext(ctx, `
		UPDATE retailer_inventory
		SET stock = stock - ?, version = version + 1, updated_at = NOW()
		WHERE retailer_id = ? AND product_id = ? AND stock >= ?`,
		quantity, retailerID, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (m *MySQLAdapter) IncrementStock(ctx context.Context, retailerID, productID int64, quantity int) error {
	result, err := m.q.ExecContext(ctx, `
		UPDATE retailer_inventory
		SET stock = stock + ?, version = version + 1, updated_at = NOW()
		WHERE retailer_id = ? AND product_id = ?`,
		quantity, retailerID, productID,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	if err := requireRow(result); err != nil {
		return fmt.Errorf("inventory for retailer %d product %d: %w", retailerID, productID, err)
	}
	return nil
}

// SetPrice always bumps the version, so the row counts as affected even when
// the price is unchanged.
func (m *MySQLAdapter) SetPrice(ctx context.Context, retailerID, productID int64, price float64) error {
	result, err := m.q.ExecContext(ctx, `
		UPDATE retailer_inventory
		SET price = ?, version = version + 1, updated_at = NOW()
		WHERE retailer_id = ? AND product_id = ?`,
		price, retailerID, productID,
	)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	if err := requireRow(result); err != nil {
		return fmt.Errorf("inventory for retailer %d product %d: %w", retailerID, productID, err)
	}
	return nil
}

func (m *MySQLAdapter) ListInventoryByRetailer(ctx context.Context, retailerID int64) ([]domain.RetailerInventory, error) {
	rows, err := m.q.QueryContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM retailer_inventory WHERE retailer_id = ? ORDER BY id`, retailerID)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RetailerInventory, 0)
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// orders

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO orders (customer_id, retailer_id, total_amount, payment_mode, order_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.CustomerID, order.RetailerID, order.TotalAmount, order.PaymentMode, order.OrderStatus, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if order.ID, err = result.LastInsertId(); err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		result, err := m.q.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES (?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if item.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, customer_id, retailer_id, total_amount, payment_mode, order_status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.RetailerID, &o.TotalAmount, &o.PaymentMode, &o.OrderStatus, &o.CreatedAt)
	return o, err
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(m.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if o.Items, err = m.orderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := m.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := m.q.ExecContext(ctx, `UPDATE orders SET order_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// MySQL reports 0 when the status is unchanged, so tell that apart from a missing row.
		o, err := m.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("order %d: %w", id, errNoRows)
		}
	}
	return nil
}

func (m *MySQLAdapter) listOrders(ctx context.Context, where string, arg int64) ([]domain.Order, error) {
	rows, err := m.q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where+` = ? ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Items, err = m.orderItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *MySQLAdapter) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return m.listOrders(ctx, "customer_id", customerID)
}

func (m *MySQLAdapter) ListOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.Order, error) {
	return m.listOrders(ctx, "retailer_id", retailerID)
}

// wholesale

const wholesaleColumns = `id, retailer_id, product_id, quantity, status, created_at`

func scanWholesale(row interface{ Scan(...any) error }) (domain.WholesaleOrder, error) {
	var o domain.WholesaleOrder
	var status string
	err := row.Scan(&o.ID, &o.RetailerID, &o.ProductID, &o.Quantity, &status, &o.CreatedAt)
	o.Status = domain.WholesaleStatus(status)
	return o, err
}

func (m *MySQLAdapter) CreateWholesaleOrder(ctx context.Context, order *domain.WholesaleOrder) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO wholesale_orders (retailer_id, product_id, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.RetailerID, order.ProductID, order.Quantity, string(order.Status), order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wholesale order: %w", err)
	}
	order.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) GetWholesaleOrder(ctx context.Context, id int64) (*domain.WholesaleOrder, error) {
	o, err := scanWholesale(m.q.QueryRowContext(ctx,
		`SELECT `+wholesaleColumns+` FROM wholesale_orders WHERE id = ?`+m.forUpdate(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query wholesale order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) TransitionWholesaleOrder(ctx context.Context, id int64, from, to domain.WholesaleStatus) (bool, error) {
	result, err := m.q.ExecContext(ctx, `
		UPDATE wholesale_orders SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update wholesale order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (m *MySQLAdapter) listWholesale(ctx context.Context, where string, arg any) ([]domain.WholesaleOrder, error) {
	rows, err := m.q.QueryContext(ctx,
		`SELECT `+wholesaleColumns+` FROM wholesale_orders WHERE `+where+` = ? ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("query wholesale orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.WholesaleOrder, 0)
	for rows.Next() {
		o, err := scanWholesale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wholesale order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) ListWholesaleOrdersByStatus(ctx context.Context, status domain.WholesaleStatus) ([]domain.WholesaleOrder, error) {
	return m.listWholesale(ctx, "status", string(status))
}

func (m *MySQLAdapter) ListWholesaleOrdersByRetailer(ctx context.Context, retailerID int64) ([]domain.WholesaleOrder, error) {
	return m.listWholesale(ctx, "retailer_id", retailerID)
}

// feedback

func (m *MySQLAdapter) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO feedback (product_id, customer_id, order_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ProductID, fb.CustomerID, nullableID(fb.OrderID), fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	fb.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) listFeedback(ctx context.Context, query string, arg int64) ([]domain.Feedback, error) {
	rows, err := m.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Feedback, 0)
	for rows.Next() {
		var fb domain.Feedback
		var orderID sql.NullInt64
		if err := rows.Scan(&fb.ID, &fb.ProductID, &fb.CustomerID, &orderID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.OrderID = idPtr(orderID)
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) ListFeedbackByProduct(ctx context.Context, productID int64) ([]domain.Feedback, error) {
	return m.listFeedback(ctx, `
		SELECT id, product_id, customer_id, order_id, rating, comment, created_at
		FROM feedback WHERE product_id = ? ORDER BY id`, productID)
}

func (m *MySQLAdapter) ListFeedbackByRetailer(ctx context.Context, retailerID int64) ([]domain.Feedback, error) {
	return m.listFeedback(ctx, `
		SELECT f.id, f.product_id, f.customer_id, f.order_id, f.rating, f.comment, f.created_at
		FROM feedback f JOIN orders o ON o.id = f.order_id
		WHERE o.retailer_id = ? ORDER BY f.id`, retailerID)
}
