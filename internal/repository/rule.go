package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-backoffice/internal/domain/rule"
)

const (
	listRulesSQL = `SELECT key, value FROM business_rules`

	getRuleSQL = `SELECT value FROM business_rules WHERE key = $1`

	upsertRuleSQL = `INSERT INTO business_rules (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

var _ rule.Store = (*RuleRepository)(nil)

// RuleRepository serves business rules from the business_rules table.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository returns a RuleRepository that uses the given pool.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// GetAll returns every configured rule.
func (r *RuleRepository) GetAll(ctx context.Context) (rule.Values, error) {
	rows, err := r.pool.Query(ctx, listRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing business rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, pgx.RowToStructByPos[rule.Rule])
	if err != nil {
		return nil, fmt.Errorf("listing business rules: %w", err)
	}
	return rule.FromRules(rules), nil
}

// GetInt returns a single rule parsed as an integer.
func (r *RuleRepository) GetInt(ctx context.Context, key string) (int, error) {
	var value string
	if err := r.pool.QueryRow(ctx, getRuleSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &rule.NotFoundError{Key: key}
		}
		return 0, fmt.Errorf("getting business rule %s: %w", key, err)
	}
	return rule.Values{key: value}.Int(key)
}

// Upsert stores rules, replacing existing values.
func (r *RuleRepository) Upsert(ctx context.Context, rules ...rule.Rule) error {
	batch := &pgx.Batch{}
	for _, rl := range rules {
		batch.Queue(upsertRuleSQL, rl.Key, rl.Value)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting business rules: %w", err)
	}
	return nil
}
