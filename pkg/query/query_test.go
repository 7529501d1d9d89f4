package query

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

type accountStatus string

const (
	statusActive    accountStatus = "Active"
	statusInactive  accountStatus = "Inactive"
	statusSuspended accountStatus = "Suspended"
)

type account struct {
	Username  string
	Status    accountStatus
	Verified  bool
	Age       int
	Score     decimal.Decimal
	CreatedAt time.Time
	DeletedAt *time.Time
}

var accountSchema = NewSchema(
	Text("Username", "username", func(a account) string { return a.Username }),
	Enum("Status", "status", []accountStatus{statusActive, statusInactive, statusSuspended},
		func(a account) accountStatus { return a.Status }),
	Bool("Verified", "verified", func(a account) bool { return a.Verified }),
	Int("Age", "age", func(a account) int { return a.Age }),
	Number("Score", "score", func(a account) decimal.Decimal { return a.Score }),
	Time("CreatedAt", "created_at", func(a account) time.Time { return a.CreatedAt }),
	NullableTime("DeletedAt", "deleted_at", func(a account) *time.Time { return a.DeletedAt }),
)

func day(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testAccounts() []account {
	deleted := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	return []account{
		{Username: "user1", Status: statusActive, Verified: true, Age: 25, Score: decimal.RequireFromString("10.5"), CreatedAt: day(1)},
		{Username: "user2", Status: statusInactive, Verified: false, Age: 30, Score: decimal.NewFromInt(20), CreatedAt: day(2)},
		{Username: "user3", Status: statusActive, Verified: true, Age: 35, Score: decimal.NewFromInt(30), CreatedAt: day(3)},
		{Username: "admin", Status: statusSuspended, Verified: false, Age: 40, Score: decimal.NewFromInt(5), CreatedAt: day(4), DeletedAt: &deleted},
		{Username: "superuser", Status: statusActive, Verified: true, Age: 45, Score: decimal.NewFromInt(50), CreatedAt: day(5)},
	}
}

func source() Queryable[account] {
	return FromSlice(accountSchema, testAccounts())
}

func usernames(t *testing.T, q Queryable[account]) []string {
	t.Helper()
	items, err := q.Fetch(context.Background(), 0, 0)
	require.NoError(t, err)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Username
	}
	return out
}

func filtered(t *testing.T, filters map[string]string) []string {
	t.Helper()
	q, err := ApplyFilters(source(), filters)
	require.NoError(t, err)
	return usernames(t, q)
}

// --- Tests ---

func TestApplyFilters(t *testing.T) {
	all := []string{"user1", "user2", "user3", "admin", "superuser"}

	tests := []struct {
		name    string
		filters map[string]string
		want    []string
	}{
		{name: "exact text", filters: map[string]string{"Username": "user1"}, want: []string{"user1"}},
		{name: "exact text is case sensitive", filters: map[string]string{"Username": "USER1"}, want: []string{}},
		{name: "key is case insensitive", filters: map[string]string{"username": "user2"}, want: []string{"user2"}},
		{name: "contains", filters: map[string]string{"Username": "*ser*"}, want: []string{"user1", "user2", "user3", "superuser"}},
		{name: "starts with", filters: map[string]string{"Username": "user*"}, want: []string{"user1", "user2", "user3"}},
		{name: "ends with", filters: map[string]string{"Username": "*1"}, want: []string{"user1"}},
		{name: "bare wildcard is skipped", filters: map[string]string{"Username": "**"}, want: all},
		{name: "enum", filters: map[string]string{"Status": "Active"}, want: []string{"user1", "user3", "superuser"}},
		{name: "enum ignores case", filters: map[string]string{"status": "inactive"}, want: []string{"user2"}},
		{name: "wildcard on enum is skipped", filters: map[string]string{"Status": "Act*"}, want: all},
		{name: "bool", filters: map[string]string{"Verified": "false"}, want: []string{"user2", "admin"}},
		{name: "bad bool is skipped", filters: map[string]string{"Verified": "maybe"}, want: all},
		{name: "exact date", filters: map[string]string{"CreatedAt": "2023-01-03"}, want: []string{"user3"}},
		{name: "bad date is skipped", filters: map[string]string{"CreatedAt": "yesterday"}, want: all},
		{name: "min date", filters: map[string]string{"_minCreatedAt": "2023-01-02"}, want: []string{"user2", "user3", "admin", "superuser"}},
		{name: "max date", filters: map[string]string{"_maxCreatedAt": "2023-01-02"}, want: []string{"user1", "user2"}},
		{name: "date range", filters: map[string]string{"_minCreatedAt": "2023-01-02", "_maxCreatedAt": "2023-01-03T00:00:00"}, want: []string{"user2", "user3"}},
		{name: "min int", filters: map[string]string{"_minAge": "35"}, want: []string{"user3", "admin", "superuser"}},
		{name: "max decimal", filters: map[string]string{"_maxScore": "10.5"}, want: []string{"user1", "admin"}},
		{name: "bad range value is skipped", filters: map[string]string{"_minAge": "old"}, want: all},
		{name: "range prefix is case sensitive", filters: map[string]string{"_MinAge": "35"}, want: all},
		{name: "range on text is skipped", filters: map[string]string{"_minUsername": "user2"}, want: all},
		{name: "exact number is skipped", filters: map[string]string{"Age": "30"}, want: all},
		{name: "null never matches a range", filters: map[string]string{"_minDeletedAt": "2023-01-01"}, want: []string{"admin"}},
		{name: "unknown key", filters: map[string]string{"Nonexistent": "x"}, want: all},
		{name: "blank value", filters: map[string]string{"Username": "   "}, want: all},
		{name: "values are trimmed", filters: map[string]string{" Username ": " user3 "}, want: []string{"user3"}},
		{name: "filters combine with and", filters: map[string]string{"Status": "Active", "_minAge": "30"}, want: []string{"user3", "superuser"}},
		{name: "empty map", filters: map[string]string{}, want: all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filtered(t, tt.filters))
		})
	}
}

func TestApplyFilters_EnumParseFailure(t *testing.T) {
	_, err := ApplyFilters(source(), map[string]string{"Status": "Deleted"})

	var fe *FilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Status", fe.Field)
	assert.Equal(t, "Deleted", fe.Value)
	assert.Equal(t, KindEnum, fe.Kind)
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	filters := map[string]string{"_minAge": "30", "Username": "*user*", "Bogus": "1"}
	snapshot := maps.Clone(filters)

	_, err := ApplyFilters(source(), filters)
	require.NoError(t, err)
	assert.Equal(t, snapshot, filters)
}

func TestApplyFilters_ReturnsSubset(t *testing.T) {
	all := usernames(t, source())
	for _, filters := range []map[string]string{
		{"Username": "*u*"},
		{"Verified": "true"},
		{"_maxCreatedAt": "2023-01-04", "Status": "active"},
	} {
		got := filtered(t, filters)
		assert.Subset(t, all, got)
		assert.LessOrEqual(t, len(got), len(all))
	}
}

func TestApplyOrderBy(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  []string
	}{
		{name: "blank keeps source order", order: "  ", want: []string{"user1", "user2", "user3", "admin", "superuser"}},
		{name: "ascending by default", order: "Username", want: []string{"admin", "superuser", "user1", "user2", "user3"}},
		{name: "explicit asc", order: "username asc", want: []string{"admin", "superuser", "user1", "user2", "user3"}},
		{name: "desc", order: "Username desc", want: []string{"user3", "user2", "user1", "superuser", "admin"}},
		{name: "direction ignores case", order: "Username DESC", want: []string{"user3", "user2", "user1", "superuser", "admin"}},
		{name: "then by", order: "Status desc, Username asc", want: []string{"admin", "user2", "superuser", "user1", "user3"}},
		{name: "enum ties keep source order", order: "Status", want: []string{"user1", "user3", "superuser", "user2", "admin"}},
		{name: "unknown clause is skipped", order: "Bogus desc, Age desc", want: []string{"superuser", "admin", "user3", "user2", "user1"}},
		{name: "only unknown clauses", order: "Bogus, Other desc", want: []string{"user1", "user2", "user3", "admin", "superuser"}},
		{name: "empty clauses are skipped", order: ",Score desc,,", want: []string{"superuser", "user3", "user2", "user1", "admin"}},
		{name: "nulls first", order: "DeletedAt", want: []string{"user1", "user2", "user3", "superuser", "admin"}},
		{name: "bool false first", order: "Verified, Age desc", want: []string{"admin", "user2", "superuser", "user3", "user1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usernames(t, ApplyOrderBy(source(), tt.order)))
		})
	}
}

func TestApplyOrderBy_Stable(t *testing.T) {
	once := ApplyOrderBy(source(), "Verified desc")
	first := usernames(t, once)
	second := usernames(t, ApplyOrderBy(FromSlice(accountSchema, mustFetch(t, once)), "Verified desc"))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"user1", "user3", "superuser", "user2", "admin"}, first)
}

func TestApplyOrderBy_LeavesSourceUntouched(t *testing.T) {
	base := source()
	_ = ApplyOrderBy(base, "Username desc")
	_, err := ApplyFilters(base, map[string]string{"Username": "user1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"user1", "user2", "user3", "admin", "superuser"}, usernames(t, base))
}

func TestFetch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source().Fetch(ctx, 0, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetch_UnknownCondition(t *testing.T) {
	q := source().Where(Eq(FieldInfo{Name: "Missing", Kind: KindText}, "x"))

	_, err := q.Count(context.Background())
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "Missing", ufe.Field)
}

func TestNewSchema_DuplicateField(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema(
			Text("name", "a", func(a account) string { return a.Username }),
			Text("Name", "b", func(a account) string { return a.Username }),
		)
	})
}

func mustFetch(t *testing.T, q Queryable[account]) []account {
	t.Helper()
	items, err := q.Fetch(context.Background(), 0, 0)
	require.NoError(t, err)
	return items
}
