package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/internal/domain/rule"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

const instrumentationName = "github.com/xenking/storefront-backoffice/internal/domain/cart"

// Input carries the writable fields of a cart. A zero Date means now.
type Input struct {
	UserID   string      `json:"userId" validate:"required"`
	Date     time.Time   `json:"date"`
	Products []LineInput `json:"products" validate:"dive"`
}

// LineInput is a requested cart line.
type LineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// Owners looks up cart owners.
type Owners interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Option configures a Service.
type Option func(*Service)

// WithTelemetry sets the providers used for pricing spans and item counters.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.tracerProvider = tp
		s.meterProvider = mp
	}
}

// Service encapsulates cart business logic.
type Service struct {
	repo      Repository
	owners    Owners
	catalog   ProductCatalog
	rules     rule.Store
	validator *validate.Validator
	now       func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	pricedItems    metric.Int64Counter
	rejected       metric.Int64Counter
}

// NewService creates a cart Service.
func NewService(
	repo Repository,
	owners Owners,
	catalog ProductCatalog,
	rules rule.Store,
	v *validate.Validator,
	opts ...Option,
) *Service {
	s := &Service{
		repo:           repo,
		owners:         owners,
		catalog:        catalog,
		rules:          rules,
		validator:      v,
		now:            time.Now,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.pricedItems, err = meter.Int64Counter("store.cart.priced_items",
		metric.WithDescription("Cart lines priced, by discount tier"),
		metric.WithUnit("{item}"),
	); err != nil {
		s.pricedItems = metricnoop.Int64Counter{}
	}
	if s.rejected, err = meter.Int64Counter("store.cart.rejected",
		metric.WithDescription("Cart saves rejected by pricing rules"),
		metric.WithUnit("{cart}"),
	); err != nil {
		s.rejected = metricnoop.Int64Counter{}
	}
	return s
}

// Create prices the requested lines and stores a new cart for its owner.
func (s *Service) Create(ctx context.Context, in Input) (*Cart, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	items := toItems(in.Products)
	if err := s.price(ctx, items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &Cart{
		ID:        uuid.New().String(),
		UserID:    owner.ID,
		Username:  owner.Username,
		Date:      dateOr(in.Date, now),
		Items:     items,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// Update replaces the owner, date and lines of cart id. Lines are re-priced
// from the current catalog and rules.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Cart, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	items := toItems(in.Products)
	if err := s.price(ctx, items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c.UserID = owner.ID
	c.Username = owner.Username
	c.Date = dateOr(in.Date, c.Date)
	c.Items = items
	c.UpdatedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update cart: %w", err)
	}
	return c, nil
}

// Get returns cart id with its lines.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes cart id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of carts.
func (s *Service) List(ctx context.Context, req query.Request) (*query.Page[Cart], error) {
	return query.Paginate(ctx, s.repo.Query(), req)
}

// SyncUsername applies a username change of userID to all of their carts.
func (s *Service) SyncUsername(ctx context.Context, userID, username string) error {
	n, err := s.repo.UpdateUsername(ctx, userID, username)
	if err != nil {
		return fmt.Errorf("update cart usernames: %w", err)
	}
	zctx.From(ctx).Debug("Synced cart usernames",
		zap.String("user_id", userID),
		zap.Int64("carts", n),
	)
	return nil
}

// price applies the pricing rules and the catalog to items.
func (s *Service) price(ctx context.Context, items []*Item) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.Price",
		trace.WithAttributes(attribute.Int("cart.lines", len(items))),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.rejected.Add(ctx, 1)
		}
		span.End()
	}()

	rules, err := s.rules.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if err := ValidatePurchase(items, rules); err != nil {
		return err
	}
	if err := EnrichFromCatalog(ctx, items, s.catalog); err != nil {
		return err
	}

	for _, it := range items {
		s.pricedItems.Add(ctx, 1, metric.WithAttributes(
			attribute.String("discount", it.Discount.String()),
		))
	}
	return nil
}

func (s *Service) owner(ctx context.Context, id string) (*user.User, error) {
	u, err := s.owners.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &UserNotFoundError{UserID: id}
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return u, nil
}

func toItems(lines []LineInput) []*Item {
	items := make([]*Item, len(lines))
	for i, l := range lines {
		items[i] = &Item{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return items
}

func dateOr(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.UTC()
}
