// Package rule holds the named business-rule scalars used by cart pricing.
package rule

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule keys understood by cart pricing.
const (
	MinQuantityForDiscount      = "MinQuantityForDiscount"
	MaxQuantityForDiscountTier1 = "MaxQuantityForDiscountTier1"
	MinQuantityForDiscountTier2 = "MinQuantityForDiscountTier2"
	MaxQuantityLimit            = "MaxQuantityLimit"
	Tier1Discount               = "Tier1Discount"
	Tier2Discount               = "Tier2Discount"
)

// Rule is a single named configuration scalar.
type Rule struct {
	Key   string
	Value string
}

// Defaults returns the rule set the store is seeded with.
func Defaults() []Rule {
	return []Rule{
		{Key: MinQuantityForDiscount, Value: "4"},
		{Key: MaxQuantityForDiscountTier1, Value: "9"},
		{Key: MinQuantityForDiscountTier2, Value: "10"},
		{Key: MaxQuantityLimit, Value: "20"},
		{Key: Tier1Discount, Value: "0.10"},
		{Key: Tier2Discount, Value: "0.20"},
	}
}

// Store supplies business rules.
type Store interface {
	// GetAll returns every rule keyed by name.
	GetAll(ctx context.Context) (Values, error)
	// GetInt returns a single rule parsed as an integer.
	GetInt(ctx context.Context, key string) (int, error)
}

// NotFoundError indicates a rule key absent from the store.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("business rule %s not configured", e.Key)
}

// InvalidError indicates a rule whose value does not parse as required.
type InvalidError struct {
	Key   string
	Value string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("business rule %s has invalid value %q", e.Key, e.Value)
}

// Values is a snapshot of rules keyed by name.
type Values map[string]string

// Int parses the rule as an integer.
func (v Values) Int(key string) (int, error) {
	raw, ok := v[key]
	if !ok {
		return 0, &NotFoundError{Key: key}
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidError{Key: key, Value: raw}
	}
	return n, nil
}

// Decimal parses the rule as a decimal.
func (v Values) Decimal(key string) (decimal.Decimal, error) {
	raw, ok := v[key]
	if !ok {
		return decimal.Zero, &NotFoundError{Key: key}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &InvalidError{Key: key, Value: raw}
	}
	return d, nil
}

// FromRules builds Values from a rule list. Later duplicates win.
func FromRules(rules []Rule) Values {
	v := make(Values, len(rules))
	for _, r := range rules {
		v[r.Key] = r.Value
	}
	return v
}
