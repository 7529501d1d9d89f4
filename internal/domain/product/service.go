package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Input carries the writable fields of a product.
type Input struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"required,max=1000"`
	Category    string          `json:"category" validate:"required,max=255"`
	Image       string          `json:"image" validate:"required,url"`
	Rating      RatingInput     `json:"rating"`
}

// RatingInput carries the writable rating fields.
type RatingInput struct {
	Rate  float64 `json:"rate" validate:"gte=0,lte=5"`
	Count int     `json:"count" validate:"gte=0"`
}

// Service encapsulates catalog business logic.
type Service struct {
	repo      Repository
	validator *validate.Validator
	now       func() time.Time
}

// NewService creates a product Service.
func NewService(repo Repository, v *validate.Validator) *Service {
	return &Service{repo: repo, validator: v, now: time.Now}
}

// Create validates in, checks the title is unused and stores a new product.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	taken, err := s.repo.TitleTaken(ctx, strings.TrimSpace(in.Title), "")
	if err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	}
	if taken {
		return nil, ErrTitleExists
	}

	p := &Product{ID: uuid.New().String(), CreatedAt: s.now().UTC()}
	apply(p, in)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update replaces the writable fields of product id. Title uniqueness is only
// checked when the title changes.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); p.Title != title {
		taken, err := s.repo.TitleTaken(ctx, title, id)
		if err != nil {
			return nil, fmt.Errorf("check title: %w", err)
		}
		if taken {
			return nil, ErrTitleExists
		}
	}

	apply(p, in)
	now := s.now().UTC()
	p.UpdatedAt = &now
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Get returns product id.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes product id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, req query.Request) (*query.Page[Product], error) {
	return query.Paginate(ctx, s.repo.Query(), req)
}

// ListByCategory returns a page of products in category. Dynamic filters in
// req narrow the category further.
func (s *Service) ListByCategory(ctx context.Context, category string, req query.Request) (*query.Page[Product], error) {
	f, _ := Schema.Lookup("Category")
	q := s.repo.Query().Where(query.Eq(f.FieldInfo, category))
	return query.Paginate(ctx, q, req)
}

// Categories returns the distinct product categories in ascending order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// FindByIDs looks up several products at once.
func (s *Service) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *Service) check(in Input) error {
	var verr *validate.Error
	if err := s.validator.Struct(in); err != nil && !errors.As(err, &verr) {
		return err
	}
	if !in.Price.IsPositive() {
		if verr == nil {
			verr = &validate.Error{}
		}
		verr.Fields = append(verr.Fields, validate.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if verr != nil {
		return verr
	}
	return nil
}

func apply(p *Product, in Input) {
	p.Title = strings.TrimSpace(in.Title)
	p.Price = in.Price
	p.Description = in.Description
	p.Category = strings.TrimSpace(in.Category)
	p.Image = in.Image
	p.Rating = Rating{Rate: decimal.NewFromFloat(in.Rating.Rate), Count: in.Rating.Count}
}
