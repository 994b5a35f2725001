package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
)

// Store is the persistence port of the order aggregate. Conf is the postgres
// implementation; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	Count(ctx context.Context) (int, error)
	UpdateAddress(ctx context.Context, id string, addr ShippingAddress) (Order, error)
	SetStatus(ctx context.Context, id string, status Status) (Order, error)
	SetCancelled(ctx context.Context, id string, at time.Time) (Order, error)
	SetDelivered(ctx context.Context, id string, at time.Time) (Order, error)
	SetPaymentIntent(ctx context.Context, id, intentRef string) error
	MarkPaid(ctx context.Context, id string, at time.Time, details PaymentMethodDetails) (Order, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

var errOrderNotFound = apperr.New(apperr.KindNotFound, "Order not found")

const orderColumns = `id, order_number, user_id, shipping_address, payment_method, payment_status,
	payment_intent_id, payment_method_details, subtotal, tax, shipping_cost, total,
	status, notes, paid_at, cancelled_at, delivered_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	var addr []byte
	var details []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &addr, &o.PaymentMethod, &o.PaymentStatus,
		&o.PaymentIntentID, &details, &o.Subtotal, &o.Tax, &o.ShippingCost, &o.Total,
		&o.Status, &o.Notes, &o.PaidAt, &o.CancelledAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("decoding shipping address: %w", err)
	}
	if len(details) > 0 {
		var d PaymentMethodDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return Order{}, fmt.Errorf("decoding payment details: %w", err)
		}
		o.PaymentMethodDetails = &d
	}
	return o, nil
}

// Create inserts the order and its line items in one transaction.
func (c *Conf) Create(ctx context.Context, o Order) (Order, error) {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return Order{}, fmt.Errorf("encoding shipping address: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, user_id, shipping_address, payment_method,
			payment_status, subtotal, tax, shipping_cost, total, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		o.ID, o.OrderNumber, o.UserID, addr, o.PaymentMethod,
		o.PaymentStatus, o.Subtotal, o.Tax, o.ShippingCost, o.Total, o.Status, o.Notes, o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("inserting order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, image, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, it.ProductID, it.Name, it.Image, it.Price, it.Quantity)
		if err != nil {
			return Order{}, fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("committing order: %w", err)
	}
	return c.Get(ctx, o.ID)
}

func (c *Conf) Get(ctx context.Context, id string) (Order, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, errOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("querying order: %w", err)
	}

	o.Items, err = c.items(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (c *Conf) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT product_id, name, image, price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()
	return c.collect(ctx, rows)
}

func (c *Conf) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where = " WHERE status = $1"
	}

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	out, err := c.collect(ctx, rows)
	return out, total, err
}

func (c *Conf) collect(ctx context.Context, rows *sql.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := c.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (c *Conf) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func (c *Conf) UpdateAddress(ctx context.Context, id string, addr ShippingAddress) (Order, error) {
	b, err := json.Marshal(addr)
	if err != nil {
		return Order{}, fmt.Errorf("encoding shipping address: %w", err)
	}
	return c.exec(ctx, id, `
		UPDATE orders SET shipping_address = $2, updated_at = NOW() WHERE id = $1`, b)
}

func (c *Conf) SetStatus(ctx context.Context, id string, status Status) (Order, error) {
	return c.exec(ctx, id, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, status)
}

func (c *Conf) SetCancelled(ctx context.Context, id string, at time.Time) (Order, error) {
	return c.exec(ctx, id, `
		UPDATE orders SET status = 'cancelled', cancelled_at = $2, updated_at = NOW() WHERE id = $1`, at)
}

// SetDelivered advances the order to delivered and force-marks the payment
// as paid: a cash-on-delivery order is considered paid at the door.
func (c *Conf) SetDelivered(ctx context.Context, id string, at time.Time) (Order, error) {
	return c.exec(ctx, id, `
		UPDATE orders
		SET status = 'delivered', delivered_at = $2, payment_status = 'paid', updated_at = NOW()
		WHERE id = $1`, at)
}

func (c *Conf) SetPaymentIntent(ctx context.Context, id, intentRef string) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE orders SET payment_intent_id = $2, updated_at = NOW() WHERE id = $1`, id, intentRef)
	if err != nil {
		return fmt.Errorf("setting payment intent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errOrderNotFound
	}
	return nil
}

// MarkPaid flips the payment status and advances pending orders to
// processing, leaving any later status untouched. paid_at is only set on the
// first application.
func (c *Conf) MarkPaid(ctx context.Context, id string, at time.Time, details PaymentMethodDetails) (Order, error) {
	b, err := json.Marshal(details)
	if err != nil {
		return Order{}, fmt.Errorf("encoding payment details: %w", err)
	}
	return c.exec(ctx, id, `
		UPDATE orders
		SET payment_status = 'paid',
		    status = CASE WHEN status = 'pending' THEN 'processing' ELSE status END,
		    payment_method_details = $3,
		    paid_at = COALESCE(paid_at, $2),
		    updated_at = NOW()
		WHERE id = $1`, at, b)
}

func (c *Conf) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errOrderNotFound
	}
	return nil
}

func (c *Conf) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'processing'),
		       COUNT(*) FILTER (WHERE status = 'shipped'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total) FILTER (WHERE status IN ('delivered', 'shipped', 'processing')), 0)
		FROM orders`).Scan(&s.TotalOrders, &s.PendingOrders, &s.ProcessingOrders,
		&s.ShippedOrders, &s.DeliveredOrders, &s.CancelledOrders, &s.Revenue)
	if err != nil {
		return Stats{}, fmt.Errorf("querying order stats: %w", err)
	}
	return s, nil
}

// exec runs an order update and returns the refreshed aggregate.
func (c *Conf) exec(ctx context.Context, id, query string, args ...any) (Order, error) {
	res, err := c.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return Order{}, fmt.Errorf("updating order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Order{}, errOrderNotFound
	}
	return c.Get(ctx, id)
}
