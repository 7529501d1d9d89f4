package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

const (
	userColumns = `id, username, email, phone, password_hash, first_name, last_name, role, status,
		city, street, street_number, zipcode, lat, long, created_at, updated_at`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	userEmailTakenSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`

	usernameTakenSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`

	insertUserSQL = `INSERT INTO users
		(id, username, email, phone, password_hash, first_name, last_name, role, status,
		city, street, street_number, zipcode, lat, long, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	updateUserSQL = `UPDATE users SET
		username = $2, email = $3, phone = $4, password_hash = $5, first_name = $6, last_name = $7,
		role = $8, status = $9, city = $10, street = $11, street_number = $12, zipcode = $13,
		lat = $14, long = $15, updated_at = $16
		WHERE id = $1`

	deleteUserSQL = `DELETE FROM users WHERE id = $1`

	userEmailKey    = "users_email_key"
	usernameUserKey = "users_username_key"
)

var _ user.Repository = (*UserRepository)(nil)

var userTable = &table[user.User]{
	schema:   user.Schema,
	from:     "users",
	columns:  userColumns,
	tiebreak: "id",
	scan:     scanUser,
}

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Query returns a queryable over the users table.
func (r *UserRepository) Query() query.Queryable[user.User] {
	return newQuery(r.pool, userTable)
}

// GetByID returns user id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns the user owning email, compared case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// EmailTaken reports whether a user other than exceptID owns email.
func (r *UserRepository) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	return r.exists(ctx, userEmailTakenSQL, email, exceptID)
}

// UsernameTaken reports whether a user other than exceptID owns username.
func (r *UserRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	return r.exists(ctx, usernameTakenSQL, username, exceptID)
}

func (r *UserRepository) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking user uniqueness: %w", err)
	}
	return ok, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Username, u.Email, u.Phone, u.PasswordHash, u.Name.First, u.Name.Last,
		string(u.Role), string(u.Status), u.Address.City, u.Address.Street, u.Address.Number,
		u.Address.ZipCode, u.Address.Lat, u.Address.Long, u.CreatedAt,
	)
	if err != nil {
		return mapUserWriteError(err, "inserting user")
	}
	return nil
}

// Update stores every field of u except CreatedAt.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx, updateUserSQL,
		u.ID, u.Username, u.Email, u.Phone, u.PasswordHash, u.Name.First, u.Name.Last,
		string(u.Role), string(u.Status), u.Address.City, u.Address.Street, u.Address.Number,
		u.Address.ZipCode, u.Address.Lat, u.Address.Long, u.UpdatedAt,
	)
	if err != nil {
		return mapUserWriteError(err, "updating user")
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes user id together with their carts.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func mapUserWriteError(err error, op string) error {
	switch {
	case isUniqueViolation(err, userEmailKey):
		return user.ErrEmailExists
	case isUniqueViolation(err, usernameUserKey):
		return user.ErrUsernameExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u            user.User
		role, status string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Name.First, &u.Name.Last,
		&role, &status, &u.Address.City, &u.Address.Street, &u.Address.Number,
		&u.Address.ZipCode, &u.Address.Lat, &u.Address.Long, &u.CreatedAt, &u.UpdatedAt,
	)
	u.Role = user.Role(role)
	u.Status = user.Status(status)
	return u, err
}
