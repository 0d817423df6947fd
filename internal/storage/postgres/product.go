package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/product"
)

const productColumns = `id, name, slug, sku, description, price, stock, category,
	featured, status, image, created_at, updated_at`

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of products matching the filter plus the total count.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) (*product.Page, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		where = append(where, "status = "+arg(string(product.StatusActive)))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Featured {
		where = append(where, "featured")
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM products"+cond, args...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count products")
	}

	query := "SELECT " + productColumns + " FROM products" + cond +
		" ORDER BY created_at DESC, id" +
		" LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	return &product.Page{Products: products, Total: total}, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetBySlug returns a single product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

// GetBySKU returns a single product by its stock keeping unit.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.getOne(ctx, "sku = $1", sku)
}

func (r *ProductRepository) getOne(ctx context.Context, cond string, arg any) (*product.Product, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+cond, arg)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product. Duplicate SKU or slug map to the domain's
// conflict errors.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products
		(id, name, slug, sku, description, price, stock, category, featured, status, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.Name, p.Slug, p.SKU, p.Description, p.Price, p.Stock,
		p.Category, p.Featured, string(p.Status), p.Image, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return errors.Wrapf(err, "create product %q", p.ID)
	}
	return nil
}

// Update rewrites all mutable columns of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET
		name = $2, slug = $3, sku = $4, description = $5, price = $6, stock = $7,
		category = $8, featured = $9, status = $10, image = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Name, p.Slug, p.SKU, p.Description, p.Price, p.Stock,
		p.Category, p.Featured, string(p.Status), p.Image, p.UpdatedAt,
	)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// HasOrders reports whether any order item references the product.
func (r *ProductRepository) HasOrders(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)", id).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check orders for product %q", id)
	}
	return exists, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p      product.Product
		status string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Featured, &status, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Status = product.Status(status)
	return p, err
}

// mapUniqueViolation translates postgres unique violations on the sku/slug
// indexes into domain conflict errors, or returns nil for other errors.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "sku"):
		return product.ErrDuplicateSKU
	case strings.Contains(pgErr.ConstraintName, "slug"):
		return product.ErrDuplicateSlug
	default:
		return nil
	}
}
