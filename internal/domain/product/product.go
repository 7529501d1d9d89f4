package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Sentinel errors for the catalog.
var (
	ErrNotFound    = errors.New("product not found")
	ErrTitleExists = errors.New("a product with this title already exists")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Rating      Rating
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Rating is the aggregated customer rating of a product.
type Rating struct {
	Rate  decimal.Decimal
	Count int
}

// Schema lists the product fields available to list filters and ordering.
var Schema = query.NewSchema(
	query.Text("Title", "title", func(p Product) string { return p.Title }),
	query.Number("Price", "price", func(p Product) decimal.Decimal { return p.Price }),
	query.Text("Description", "description", func(p Product) string { return p.Description }),
	query.Text("Category", "category", func(p Product) string { return p.Category }),
	query.Text("Image", "image", func(p Product) string { return p.Image }),
	query.Number("Rating", "rating_rate", func(p Product) decimal.Decimal { return p.Rating.Rate }),
	query.Int("RatingCount", "rating_count", func(p Product) int { return p.Rating.Count }),
	query.Time("CreatedAt", "created_at", func(p Product) time.Time { return p.CreatedAt }),
	query.NullableTime("UpdatedAt", "updated_at", func(p Product) *time.Time { return p.UpdatedAt }),
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	// Query returns a queryable over all products.
	Query() query.Queryable[Product]
	GetByID(ctx context.Context, id string) (*Product, error)
	// FindByIDs returns products matching any of the given IDs, in no
	// particular order. Unknown IDs are absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	// TitleTaken reports whether another product than exceptID uses title.
	TitleTaken(ctx context.Context, title, exceptID string) (bool, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
