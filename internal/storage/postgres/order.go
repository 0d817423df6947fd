package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/order"
)

const orderColumns = `id, order_number, user_id, guest_email, status, payment_status,
	payment_method, subtotal, tax, shipping, total, notes, address, created_at, updated_at`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and all of its items in a single transaction.
// A failure on any item insert rolls back the whole order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return errors.Wrap(err, "marshal order address")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO orders
		(id, order_number, user_id, guest_email, status, payment_status, payment_method,
		 subtotal, tax, shipping, total, notes, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.OrderNumber, nullable(o.UserID), nullable(o.GuestEmail),
		string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod),
		o.Subtotal, o.Tax, o.Shipping, o.Total, o.Notes, addressJSON,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	rows := make([][]any, len(o.Items))
	for i, it := range o.Items {
		rows[i] = []any{it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Total}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "name", "quantity", "price", "total"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return errors.Wrapf(err, "insert items for order %q", o.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit order")
	}
	return nil
}

// GetByID fetches one order with its items attached.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	items, err := r.itemsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return &o, nil
}

// ListByUser returns all of a purchaser's orders, newest first, each with
// its items attached.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for user %q", userID)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// NumberExists reports whether an order number is already taken.
func (r *OrderRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)", number).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check order number")
	}
	return exists, nil
}

// itemsFor batch-loads items for the given order IDs, grouped by order.
func (r *OrderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]order.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, name, quantity, price, total
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get order items")
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Total)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan order items")
	}

	grouped := make(map[string][]order.Item, len(orderIDs))
	for _, it := range items {
		grouped[it.OrderID] = append(grouped[it.OrderID], it)
	}
	return grouped, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	var userID, guestEmail *string
	var status, paymentStatus, payMeth string
	var addressJSON []byte
	err := row.Scan(
		&o.ID, &o.OrderNumber, &userID, &guestEmail, &status, &paymentStatus,
		&payMeth, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.Notes,
		&addressJSON, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if userID != nil {
		o.UserID = *userID
	}
	if guestEmail != nil {
		o.GuestEmail = *guestEmail
	}
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.PaymentMethod = order.PaymentMethod(payMeth)
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return o, errors.Wrap(err, "decode order address")
	}
	return o, nil
}

// nullable maps empty strings to NULL so the orders table's purchaser check
// constraint sees exactly one identity column set.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
