package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-backoffice/internal/domain/cart"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

const (
	cartColumns = `id, user_id, username, date, created_at, updated_at`

	getCartByIDSQL = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

	listCartItemsSQL = `SELECT cart_id, product_id, product_title, quantity, unit_price, discount
		FROM cart_items WHERE cart_id = ANY($1) ORDER BY cart_id, position`

	insertCartSQL = `INSERT INTO carts (id, user_id, username, date, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	updateCartSQL = `UPDATE carts SET user_id = $2, username = $3, date = $4, updated_at = $5
		WHERE id = $1`

	insertCartItemSQL = `INSERT INTO cart_items
		(cart_id, position, product_id, product_title, quantity, unit_price, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	deleteCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`

	updateCartUsernameSQL = `UPDATE carts SET username = $2 WHERE user_id = $1 AND username <> $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Lines are
// stored in cart_items in their cart order.
type CartRepository struct {
	pool  *pgxpool.Pool
	table *table[cart.Cart]
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	r := &CartRepository{pool: pool}
	r.table = &table[cart.Cart]{
		schema:     cart.Schema,
		from:       "carts",
		columns:    cartColumns,
		tiebreak:   "id",
		scan:       scanCart,
		afterFetch: r.loadItems,
	}
	return r
}

// Query returns a queryable over carts. Fetched carts include their lines.
func (r *CartRepository) Query() query.Queryable[cart.Cart] {
	return newQuery(r.pool, r.table)
}

// GetByID returns cart id with its lines.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	carts := []cart.Cart{c}
	if err := r.loadItems(ctx, carts); err != nil {
		return nil, err
	}
	return &carts[0], nil
}

// Create inserts c and its lines in one transaction.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertCartSQL, c.ID, c.UserID, c.Username, c.Date, c.CreatedAt); err != nil {
			return fmt.Errorf("inserting cart: %w", err)
		}
		return insertItems(ctx, tx, c)
	})
}

// Update stores the header of c and replaces its lines in one transaction.
func (r *CartRepository) Update(ctx context.Context, c *cart.Cart) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateCartSQL, c.ID, c.UserID, c.Username, c.Date, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("updating cart %q: %w", c.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrNotFound
		}
		if _, err := tx.Exec(ctx, deleteCartItemsSQL, c.ID); err != nil {
			return fmt.Errorf("clearing cart %q items: %w", c.ID, err)
		}
		return insertItems(ctx, tx, c)
	})
}

// Delete removes cart id; its lines cascade.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCartSQL, id)
	if err != nil {
		return fmt.Errorf("deleting cart %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// UpdateUsername rewrites the denormalised username on every cart of userID.
func (r *CartRepository) UpdateUsername(ctx context.Context, userID, username string) (int64, error) {
	tag, err := r.pool.Exec(ctx, updateCartUsernameSQL, userID, username)
	if err != nil {
		return 0, fmt.Errorf("updating usernames of %q carts: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func insertItems(ctx context.Context, tx pgx.Tx, c *cart.Cart) error {
	if len(c.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range c.Items {
		batch.Queue(insertCartItemSQL,
			c.ID, i, it.ProductID, it.ProductTitle, it.Quantity, it.UnitPrice, it.Discount,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting cart %q items: %w", c.ID, err)
	}
	return nil
}

// loadItems fills Items of every cart with a single query.
func (r *CartRepository) loadItems(ctx context.Context, carts []cart.Cart) error {
	ids := make([]string, len(carts))
	index := make(map[string]int, len(carts))
	for i := range carts {
		ids[i] = carts[i].ID
		index[carts[i].ID] = i
		carts[i].Items = []*cart.Item{}
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cartID string
			it     cart.Item
		)
		if err := rows.Scan(&cartID, &it.ProductID, &it.ProductTitle, &it.Quantity, &it.UnitPrice, &it.Discount); err != nil {
			return fmt.Errorf("scanning cart item: %w", err)
		}
		if i, ok := index[cartID]; ok {
			carts[i].Items = append(carts[i].Items, &it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing cart items: %w", err)
	}
	return nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var c cart.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.Date, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
