package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/internal/domain/rule"
)

// tiers holds the parsed discount rules.
type tiers struct {
	limit    int
	minTier1 int
	maxTier1 int
	minTier2 int
	tier1    decimal.Decimal
	tier2    decimal.Decimal
}

func parseTiers(rules rule.Values) (tiers, error) {
	var (
		t   tiers
		err error
	)
	if t.limit, err = rules.Int(rule.MaxQuantityLimit); err != nil {
		return t, err
	}
	if t.minTier1, err = rules.Int(rule.MinQuantityForDiscount); err != nil {
		return t, err
	}
	if t.maxTier1, err = rules.Int(rule.MaxQuantityForDiscountTier1); err != nil {
		return t, err
	}
	if t.minTier2, err = rules.Int(rule.MinQuantityForDiscountTier2); err != nil {
		return t, err
	}
	if t.tier1, err = rules.Decimal(rule.Tier1Discount); err != nil {
		return t, err
	}
	if t.tier2, err = rules.Decimal(rule.Tier2Discount); err != nil {
		return t, err
	}
	return t, nil
}

// discount returns the discount for quantity. Tier 2 is evaluated after tier 1
// and wins when both ranges match.
func (t tiers) discount(quantity int) decimal.Decimal {
	d := decimal.Zero
	if quantity >= t.minTier1 && quantity <= t.maxTier1 {
		d = t.tier1
	}
	if quantity >= t.minTier2 && quantity <= t.limit {
		d = t.tier2
	}
	return d
}

// ValidatePurchase enforces the per-product quantity limit and sets the
// discount of every item from the quantity tiers in rules.
//
// Items are checked against the limit before any discount is written, so on
// error no item is modified. Items must not be shared with concurrent callers.
func ValidatePurchase(items []*Item, rules rule.Values) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}

	t, err := parseTiers(rules)
	if err != nil {
		return errors.Wrap(err, "pricing rules")
	}

	for _, it := range items {
		if it.Quantity > t.limit {
			return &QuantityLimitError{ProductID: it.ProductID, Quantity: it.Quantity, Limit: t.limit}
		}
	}
	for _, it := range items {
		it.Discount = t.discount(it.Quantity)
	}
	return nil
}

// EnrichFromCatalog copies the title and price of each item's product from
// catalog. Products are fetched in one call with the distinct IDs.
//
// Every referenced product must exist; otherwise a *ProductNotFoundError is
// returned and no item is modified. A cancelled ctx surfaces as ctx.Err().
func EnrichFromCatalog(ctx context.Context, items []*Item, catalog ProductCatalog) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	products, err := catalog.FindByIDs(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "find products")
		}
		return errors.Wrap(err, "find products")
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return &ProductNotFoundError{ProductID: id}
		}
	}

	for _, it := range items {
		p := products[byID[it.ProductID]]
		it.ProductTitle = p.Title
		it.UnitPrice = p.Price
	}
	return nil
}
