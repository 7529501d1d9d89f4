// Package catalog loads product records from JSON seed files and gzip NDJSON
// exports into the product store.
package catalog

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
)

// Record is one product in an import file.
type Record struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      struct {
		Rate  decimal.Decimal `json:"rate"`
		Count int             `json:"count"`
	} `json:"rating"`
}

// Key is the de-duplication key of r. Titles are unique in the catalog.
func (r *Record) Key() string {
	return strings.TrimSpace(r.Title)
}

// Check reports the first reason r cannot be imported.
func (r *Record) Check() error {
	switch {
	case r.Key() == "":
		return errors.New("title is required")
	case !r.Price.IsPositive():
		return errors.Errorf("price %s must be greater than 0", r.Price)
	case strings.TrimSpace(r.Category) == "":
		return errors.New("category is required")
	case r.Rating.Rate.IsNegative() || r.Rating.Rate.GreaterThan(decimal.NewFromInt(5)):
		return errors.Errorf("rating %s must be between 0 and 5", r.Rating.Rate)
	case r.Rating.Count < 0:
		return errors.Errorf("rating count %d must not be negative", r.Rating.Count)
	}
	return nil
}

// Product converts r into a new catalog product.
func (r *Record) Product(now time.Time) product.Product {
	return product.Product{
		ID:          uuid.NewString(),
		Title:       r.Key(),
		Price:       r.Price,
		Description: r.Description,
		Category:    strings.TrimSpace(r.Category),
		Image:       r.Image,
		Rating:      product.Rating{Rate: r.Rating.Rate, Count: r.Rating.Count},
		CreatedAt:   now,
	}
}

// ReadJSON decodes a JSON array of records.
func ReadJSON(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, errors.Wrap(err, "decode records")
	}
	for i := range recs {
		if err := recs[i].Check(); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
	}
	return recs, nil
}
