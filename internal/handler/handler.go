// Package handler serves the back-office REST API on a net/http ServeMux.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/storefront-backoffice/internal/domain/auth"
	"github.com/xenking/storefront-backoffice/internal/domain/cart"
	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/pkg/query"
)

// Authenticator issues and verifies bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Session, error)
	Verify(token string) (*auth.Claims, error)
}

// Users is the user account service.
type Users interface {
	Create(ctx context.Context, in user.Input) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, id string, in user.Input) (*user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req query.Request) (*query.Page[user.User], error)
}

// Products is the catalog service.
type Products interface {
	Create(ctx context.Context, in product.Input) (*product.Product, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	Update(ctx context.Context, id string, in product.Input) (*product.Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req query.Request) (*query.Page[product.Product], error)
	ListByCategory(ctx context.Context, category string, req query.Request) (*query.Page[product.Product], error)
	Categories(ctx context.Context) ([]string, error)
}

// Carts is the cart service.
type Carts interface {
	Create(ctx context.Context, in cart.Input) (*cart.Cart, error)
	Get(ctx context.Context, id string) (*cart.Cart, error)
	Update(ctx context.Context, id string, in cart.Input) (*cart.Cart, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req query.Request) (*query.Page[cart.Cart], error)
}

var (
	_ Authenticator = (*auth.Service)(nil)
	_ Users         = (*user.Service)(nil)
	_ Products      = (*product.Service)(nil)
	_ Carts         = (*cart.Service)(nil)
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	// MaxBodyBytes limits request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Handler implements the REST routes, delegating business logic to the
// domain services.
type Handler struct {
	auth     Authenticator
	users    Users
	products Products
	carts    Carts

	imageBaseURL string
	maxBodyBytes int64
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, authn Authenticator, users Users, products Products, carts Carts) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		auth:         authn,
		users:        users,
		products:     products,
		carts:        carts,
		imageBaseURL: cfg.ImageBaseURL,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	protect := h.requireAuth

	mux.HandleFunc("POST /api/auth", h.authenticate)

	mux.HandleFunc("POST /api/users", h.createUser)
	mux.Handle("GET /api/users", protect(h.listUsers))
	mux.Handle("GET /api/users/{id}", protect(h.getUser))
	mux.Handle("PUT /api/users/{id}", protect(h.updateUser))
	mux.Handle("DELETE /api/users/{id}", protect(h.deleteUser))

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/categories", h.listCategories)
	mux.HandleFunc("GET /api/products/category/{category}", h.listProductsByCategory)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.Handle("POST /api/products", protect(h.createProduct))
	mux.Handle("PUT /api/products/{id}", protect(h.updateProduct))
	mux.Handle("DELETE /api/products/{id}", protect(h.deleteProduct))

	mux.Handle("GET /api/carts", protect(h.listCarts))
	mux.Handle("POST /api/carts", protect(h.createCart))
	mux.Handle("GET /api/carts/{id}", protect(h.getCart))
	mux.Handle("PUT /api/carts/{id}", protect(h.updateCart))
	mux.Handle("DELETE /api/carts/{id}", protect(h.deleteCart))
}
