// Package user manages back-office user accounts.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Sentinel errors for user operations.
var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

// Role is the authorisation role of a user.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// Roles lists every role in ordinal order.
var Roles = []Role{RoleCustomer, RoleManager, RoleAdmin}

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusSuspended Status = "Suspended"
)

// Statuses lists every status in ordinal order.
var Statuses = []Status{StatusActive, StatusInactive, StatusSuspended}

// User is a back-office account.
type User struct {
	ID           string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Name         Name
	Role         Role
	Status       Status
	Address      Address
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Name is the personal name of a user.
type Name struct {
	First string
	Last  string
}

// Address is the postal address of a user.
type Address struct {
	City    string
	Street  string
	Number  string
	ZipCode string
	Lat     string
	Long    string
}

// Activate marks the account active.
func (u *User) Activate(now time.Time) { u.setStatus(StatusActive, now) }

// Deactivate marks the account inactive.
func (u *User) Deactivate(now time.Time) { u.setStatus(StatusInactive, now) }

// Suspend blocks the account.
func (u *User) Suspend(now time.Time) { u.setStatus(StatusSuspended, now) }

func (u *User) setStatus(s Status, now time.Time) {
	u.Status = s
	u.UpdatedAt = &now
}

// Schema lists the user fields available to list filters and ordering.
var Schema = query.NewSchema(
	query.Text("Username", "username", func(u User) string { return u.Username }),
	query.Text("Email", "email", func(u User) string { return u.Email }),
	query.Text("Phone", "phone", func(u User) string { return u.Phone }),
	query.Text("FirstName", "first_name", func(u User) string { return u.Name.First }),
	query.Text("LastName", "last_name", func(u User) string { return u.Name.Last }),
	query.Enum("Role", "role", Roles, func(u User) Role { return u.Role }),
	query.Enum("Status", "status", Statuses, func(u User) Status { return u.Status }),
	query.Text("City", "city", func(u User) string { return u.Address.City }),
	query.Text("ZipCode", "zipcode", func(u User) string { return u.Address.ZipCode }),
	query.Time("CreatedAt", "created_at", func(u User) time.Time { return u.CreatedAt }),
	query.NullableTime("UpdatedAt", "updated_at", func(u User) *time.Time { return u.UpdatedAt }),
)

// Repository defines persistence operations for users.
type Repository interface {
	Query() query.Queryable[User]
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// EmailTaken reports whether a user other than exceptID owns email.
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
	// UsernameTaken reports whether a user other than exceptID owns username.
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

// Updated is emitted after a user changes so denormalised copies of the
// username can follow.
type Updated struct {
	UserID     string
	Username   string
	OccurredAt time.Time
}

// Publisher delivers user change notifications.
type Publisher interface {
	PublishUserUpdated(ctx context.Context, ev Updated) error
}

// PasswordHasher hashes plain-text passwords for storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
