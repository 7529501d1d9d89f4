package rule

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticStore_Defaults(t *testing.T) {
	s := NewStaticStore()
	ctx := context.Background()

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	limit, err := s.GetInt(ctx, MaxQuantityLimit)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	tier2, err := all.Decimal(Tier2Discount)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.20").Equal(tier2))
}

func TestStaticStore_GetAllReturnsCopy(t *testing.T) {
	s := NewStaticStore()
	ctx := context.Background()

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	all[MaxQuantityLimit] = "1"

	limit, err := s.GetInt(ctx, MaxQuantityLimit)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
}

func TestValues_Errors(t *testing.T) {
	v := Values{"Broken": "ten"}

	_, err := v.Int("Missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Missing", nf.Key)

	_, err = v.Int("Broken")
	var inv *InvalidError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "ten", inv.Value)

	_, err = v.Decimal("Broken")
	require.ErrorAs(t, err, &inv)
}

func TestStaticStore_Set(t *testing.T) {
	s := NewStaticStore(Rule{Key: MaxQuantityLimit, Value: "5"})
	s.Set(MaxQuantityLimit, " 7 ")

	n, err := s.GetInt(context.Background(), MaxQuantityLimit)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
