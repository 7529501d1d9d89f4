package handler

import (
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-backoffice/internal/domain/cart"
	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
)

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeOptTime(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	encodeTime(e, *t)
}

// encodeDecimal writes d as a JSON number without going through float64.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeUser(e *jx.Encoder, u *user.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(u.ID) })
		e.Field("username", func(e *jx.Encoder) { e.Str(u.Username) })
		e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(u.Phone) })
		e.Field("name", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("firstname", func(e *jx.Encoder) { e.Str(u.Name.First) })
				e.Field("lastname", func(e *jx.Encoder) { e.Str(u.Name.Last) })
			})
		})
		e.Field("address", func(e *jx.Encoder) {
			a := u.Address
			e.Obj(func(e *jx.Encoder) {
				e.Field("city", func(e *jx.Encoder) { e.Str(a.City) })
				e.Field("street", func(e *jx.Encoder) { e.Str(a.Street) })
				e.Field("number", func(e *jx.Encoder) { e.Str(a.Number) })
				e.Field("zipcode", func(e *jx.Encoder) { e.Str(a.ZipCode) })
				e.Field("geolocation", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("lat", func(e *jx.Encoder) { e.Str(a.Lat) })
						e.Field("long", func(e *jx.Encoder) { e.Str(a.Long) })
					})
				})
			})
		})
		e.Field("role", func(e *jx.Encoder) { e.Str(string(u.Role)) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(u.Status)) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, u.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeOptTime(e, u.UpdatedAt) })
	})
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
		e.Field("rating", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("rate", func(e *jx.Encoder) { encodeDecimal(e, p.Rating.Rate) })
				e.Field("count", func(e *jx.Encoder) { e.Int(p.Rating.Count) })
			})
		})
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, p.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeOptTime(e, p.UpdatedAt) })
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("username", func(e *jx.Encoder) { e.Str(c.Username) })
		e.Field("date", func(e *jx.Encoder) { encodeTime(e, c.Date) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("productTitle", func(e *jx.Encoder) { e.Str(it.ProductTitle) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, it.UnitPrice) })
						e.Field("discount", func(e *jx.Encoder) { encodeDecimal(e, it.Discount) })
						e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, it.Total()) })
					})
				}
			})
		})
		e.Field("totalAmount", func(e *jx.Encoder) { encodeDecimal(e, c.Total()) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, c.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeOptTime(e, c.UpdatedAt) })
	})
}
