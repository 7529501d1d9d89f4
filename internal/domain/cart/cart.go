// Package cart prices shopping carts and manages their lifecycle.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound   = errors.New("cart not found")
	ErrEmptyItems = errors.New("cart must contain at least one product")
)

// QuantityLimitError indicates a line exceeding the per-product quantity limit.
type QuantityLimitError struct {
	ProductID string
	Quantity  int
	Limit     int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("cannot sell more than %d items of any product", e.Limit)
}

// ProductNotFoundError indicates a line referencing a product that does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// UserNotFoundError indicates a cart owner that does not exist.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.UserID)
}

// Cart is a user's shopping cart.
type Cart struct {
	ID     string
	UserID string
	// Username is copied from the owner and kept in sync by user updates.
	Username  string
	Date      time.Time
	Items     []*Item
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Item is a cart line. Title, UnitPrice and Discount are derived: they are
// overwritten from the catalog and the pricing rules on every save.
type Item struct {
	ProductID    string
	ProductTitle string
	Quantity     int
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
}

// Total is the discounted line amount rounded to cents.
func (it *Item) Total() decimal.Decimal {
	gross := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	return gross.Sub(gross.Mul(it.Discount)).Round(2)
}

// Total sums the line totals.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}

// Schema lists the cart fields available to list filters and ordering.
var Schema = query.NewSchema(
	query.Text("UserID", "user_id", func(c Cart) string { return c.UserID }),
	query.Text("Username", "username", func(c Cart) string { return c.Username }),
	query.Time("Date", "date", func(c Cart) time.Time { return c.Date }),
	query.Time("CreatedAt", "created_at", func(c Cart) time.Time { return c.CreatedAt }),
	query.NullableTime("UpdatedAt", "updated_at", func(c Cart) *time.Time { return c.UpdatedAt }),
)

// Repository defines persistence operations for carts. Implementations load
// and store Items together with the cart.
type Repository interface {
	Query() query.Queryable[Cart]
	GetByID(ctx context.Context, id string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Update(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
	// UpdateUsername rewrites the denormalised username on every cart of
	// userID and returns the number of carts changed.
	UpdateUsername(ctx context.Context, userID, username string) (int64, error)
}

// ProductCatalog is the batched product lookup used to enrich cart lines.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}
