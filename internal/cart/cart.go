package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/products"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Items returns the raw (product, quantity) pairs for a user's cart. An
// absent cart is an empty cart.
func (c *Conf) Items(ctx context.Context, userID string) ([]Item, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT product_id, quantity FROM cart_items
		WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DetailedItems joins the cart with the catalog for display.
func (c *Conf) DetailedItems(ctx context.Context, userID string) ([]DetailedItem, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT ci.product_id, p.name, COALESCE(p.images ->> 0, ''), p.price, p.quantity, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart: %w", err)
	}
	defer rows.Close()

	var out []DetailedItem
	for rows.Next() {
		var it DetailedItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.Price, &it.Stock, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddItem puts quantity units of a product into the cart, merging with any
// existing row. The stock check here is advisory; checkout re-checks and the
// final decrement is conditional.
func (c *Conf) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return apperr.New(apperr.KindValidation, "Quantity must be at least 1")
	}

	var stock int
	err := c.db.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	if err != nil {
		return fmt.Errorf("querying product: %w", err)
	}

	var existing int
	err = c.db.QueryRowContext(ctx, `
		SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("querying cart item: %w", err)
	}

	if stock < existing+quantity {
		return apperr.Wrap(apperr.KindValidation, "Insufficient stock", products.ErrInsufficientStock)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + $3, updated_at = NOW()`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("adding cart item: %w", err)
	}
	return nil
}

// UpdateItem sets the quantity of an existing cart row.
func (c *Conf) UpdateItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return apperr.New(apperr.KindValidation, "Quantity must be at least 1")
	}

	var stock int
	err := c.db.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	if err != nil {
		return fmt.Errorf("querying product: %w", err)
	}
	if stock < quantity {
		return apperr.Wrap(apperr.KindValidation, "Insufficient stock", products.ErrInsufficientStock)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "Item not found in cart")
	}
	return nil
}

func (c *Conf) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	return nil
}

func (c *Conf) Clear(ctx context.Context, userID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Count sums item quantities across the cart.
func (c *Conf) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting cart items: %w", err)
	}
	return count, nil
}
