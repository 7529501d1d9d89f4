package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

const (
	productColumns = `id, title, price, description, category, image, rating_rate, rating_count, created_at, updated_at`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	productTitleTakenSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE title = $1 AND id <> $2)`

	listCategoriesSQL = `SELECT DISTINCT category FROM products ORDER BY category`

	insertProductSQL = `INSERT INTO products
		(id, title, price, description, category, image, rating_rate, rating_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET
		title = $2, price = $3, description = $4, category = $5, image = $6,
		rating_rate = $7, rating_count = $8, updated_at = $9
		WHERE id = $1`

	upsertProductSQL = `INSERT INTO products
		(id, title, price, description, category, image, rating_rate, rating_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (title) DO UPDATE SET
		price = EXCLUDED.price, description = EXCLUDED.description, category = EXCLUDED.category,
		image = EXCLUDED.image, rating_rate = EXCLUDED.rating_rate, rating_count = EXCLUDED.rating_count,
		updated_at = EXCLUDED.created_at`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	productTitleKey = "products_title_key"
)

var _ product.Repository = (*ProductRepository)(nil)

var productTable = &table[product.Product]{
	schema:   product.Schema,
	from:     "products",
	columns:  productColumns,
	tiebreak: "id",
	scan:     scanProduct,
}

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Query returns a queryable over the products table.
func (r *ProductRepository) Query() query.Queryable[product.Product] {
	return newQuery(r.pool, productTable)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// FindByIDs returns products matching any of the given IDs.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// TitleTaken reports whether a product other than exceptID uses title.
func (r *ProductRepository) TitleTaken(ctx context.Context, title, exceptID string) (bool, error) {
	var taken bool
	if err := r.pool.QueryRow(ctx, productTitleTakenSQL, title, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("checking product title: %w", err)
	}
	return taken, nil
}

// Categories returns the distinct categories in ascending order.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Title, p.Price, p.Description, p.Category, p.Image,
		p.Rating.Rate, p.Rating.Count, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, productTitleKey) {
			return product.ErrTitleExists
		}
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

// Update stores the writable fields of p.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Price, p.Description, p.Category, p.Image,
		p.Rating.Rate, p.Rating.Count, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, productTitleKey) {
			return product.ErrTitleExists
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes product id.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// UpsertBatch inserts products in one round trip, updating existing rows
// with the same title.
func (r *ProductRepository) UpsertBatch(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Title, p.Price, p.Description, p.Category, p.Image,
			p.Rating.Rate, p.Rating.Count, p.CreatedAt,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description, &p.Category, &p.Image,
		&p.Rating.Rate, &p.Rating.Count, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
