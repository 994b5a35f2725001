package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Viduth04/imax-backend/internal/apperr"

	"github.com/google/uuid"
)

// ErrInsufficientStock is returned when a conditional decrement would drive
// quantity negative.
var ErrInsufficientStock = errors.New("insufficient stock")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const productColumns = `id, name, description, category, brand, price, quantity, images, featured, status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand,
		&p.Price, &p.Quantity, &images, &p.Featured, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return Product{}, fmt.Errorf("decoding images: %w", err)
	}
	return p, nil
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	images, err := json.Marshal(np.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encoding images: %w", err)
	}
	status := StatusForQuantity(np.Quantity, StatusActive)

	row := c.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, description, category, brand, price, quantity, images, featured, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		uuid.NewString(), np.Name, np.Description, np.Category, np.Brand,
		np.Price, np.Quantity, images, np.Featured, status)

	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

func (c *Conf) GetProduct(ctx context.Context, id string) (Product, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, apperr.New(apperr.KindNotFound, "Product not found")
	}
	if err != nil {
		return Product{}, fmt.Errorf("querying product: %w", err)
	}
	return p, nil
}

// UpdateProduct replaces the mutable fields of a product. Status is
// recomputed from the new quantity so it stays a pure function of stock.
func (c *Conf) UpdateProduct(ctx context.Context, id string, np NewProduct) (Product, error) {
	images, err := json.Marshal(np.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encoding images: %w", err)
	}

	row := c.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, category = $4, brand = $5, price = $6,
		    quantity = $7, images = $8, featured = $9,
		    status = CASE
		        WHEN $7 = 0 THEN 'out-of-stock'
		        WHEN status = 'out-of-stock' THEN 'active'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, np.Name, np.Description, np.Category, np.Brand, np.Price, np.Quantity, images, np.Featured)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, apperr.New(apperr.KindNotFound, "Product not found")
	}
	if err != nil {
		return Product{}, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

func (c *Conf) DeleteProduct(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	return nil
}

// AdjustQuantity applies a stock delta as a single conditional update. A
// negative delta only commits when the resulting quantity stays >= 0; zero
// rows affected means a concurrent sale emptied the stock first. Status is
// recomputed in the same statement.
func (c *Conf) AdjustQuantity(ctx context.Context, id string, delta int) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity + $2,
		    status = CASE
		        WHEN quantity + $2 = 0 THEN 'out-of-stock'
		        WHEN status = 'out-of-stock' THEN 'active'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0`, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjusting quantity: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking product: %w", err)
		}
		if !exists {
			return apperr.New(apperr.KindNotFound, "Product not found")
		}
		return apperr.Wrap(apperr.KindValidation, "Insufficient stock", ErrInsufficientStock)
	}
	return nil
}

// ListProducts applies the filter and returns one page of products plus the
// total match count.
func (c *Conf) ListProducts(ctx context.Context, f ListFilter) ([]Product, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)", n, n, n)
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Brand != "" {
		args = append(args, f.Brand)
		where += fmt.Sprintf(" AND brand = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		where += fmt.Sprintf(" AND price >= $%d", len(args))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		where += fmt.Sprintf(" AND price <= $%d", len(args))
	}

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
