package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Input carries the writable fields of a user. Password may be left empty on
// update to keep the current one.
type Input struct {
	Username string       `json:"username" validate:"required,min=3,max=50,username"`
	Email    string       `json:"email" validate:"required,max=100,email"`
	Password string       `json:"password" validate:"omitempty,password"`
	Phone    string       `json:"phone" validate:"required,e164"`
	Status   Status       `json:"status" validate:"required,oneof=Active Inactive Suspended"`
	Role     Role         `json:"role" validate:"required,oneof=Customer Manager Admin"`
	Name     NameInput    `json:"name"`
	Address  AddressInput `json:"address"`
}

// NameInput carries the writable name fields.
type NameInput struct {
	Firstname string `json:"firstname" validate:"required,max=50"`
	Lastname  string `json:"lastname" validate:"required,max=50"`
}

// AddressInput carries the writable address fields.
type AddressInput struct {
	City        string           `json:"city" validate:"required,max=100"`
	Street      string           `json:"street" validate:"required,max=100"`
	Number      string           `json:"number" validate:"required,streetnumber"`
	ZipCode     string           `json:"zipcode" validate:"required,zipcode"`
	Geolocation GeolocationInput `json:"geolocation"`
}

// GeolocationInput carries the coordinates of an address.
type GeolocationInput struct {
	Lat  string `json:"lat" validate:"required"`
	Long string `json:"long" validate:"required"`
}

// Service encapsulates user account business logic.
type Service struct {
	repo      Repository
	hasher    PasswordHasher
	publisher Publisher
	validator *validate.Validator
	now       func() time.Time
}

// NewService creates a user Service.
func NewService(repo Repository, hasher PasswordHasher, publisher Publisher, v *validate.Validator) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		validator: v,
		now:       time.Now,
	}
}

// Create validates in, enforces unique email and username, and stores a new
// user with a hashed password.
func (s *Service) Create(ctx context.Context, in Input) (*User, error) {
	if err := s.check(in, true); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	apply(u, in)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update replaces the writable fields of user id and announces the change.
// A failed announcement is logged and does not fail the update.
func (s *Service) Update(ctx context.Context, id string, in Input) (*User, error) {
	if err := s.check(in, false); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in, id); err != nil {
		return nil, err
	}

	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		u.PasswordHash = hash
	}
	apply(u, in)
	now := s.now().UTC()
	u.UpdatedAt = &now

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	ev := Updated{UserID: u.ID, Username: u.Username, OccurredAt: now}
	if err := s.publisher.PublishUserUpdated(ctx, ev); err != nil {
		zctx.From(ctx).Warn("Publish user updated",
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
	}
	return u, nil
}

// Get returns user id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes user id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, req query.Request) (*query.Page[User], error) {
	return query.Paginate(ctx, s.repo.Query(), req)
}

func (s *Service) ensureUnique(ctx context.Context, in Input, exceptID string) error {
	taken, err := s.repo.EmailTaken(ctx, normalizeEmail(in.Email), exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailExists
	}

	taken, err = s.repo.UsernameTaken(ctx, strings.TrimSpace(in.Username), exceptID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return ErrUsernameExists
	}
	return nil
}

func (s *Service) check(in Input, requirePassword bool) error {
	var verr *validate.Error
	if err := s.validator.Struct(in); err != nil && !errors.As(err, &verr) {
		return err
	}
	if requirePassword && in.Password == "" {
		if verr == nil {
			verr = &validate.Error{}
		}
		verr.Fields = append(verr.Fields, validate.FieldError{Field: "password", Message: "is required"})
	}
	if verr != nil {
		return verr
	}
	return nil
}

func apply(u *User, in Input) {
	u.Username = strings.TrimSpace(in.Username)
	u.Email = normalizeEmail(in.Email)
	u.Phone = in.Phone
	u.Status = in.Status
	u.Role = in.Role
	u.Name = Name{First: in.Name.Firstname, Last: in.Name.Lastname}
	u.Address = Address{
		City:    in.Address.City,
		Street:  in.Address.Street,
		Number:  in.Address.Number,
		ZipCode: in.Address.ZipCode,
		Lat:     in.Address.Geolocation.Lat,
		Long:    in.Address.Geolocation.Long,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
