//go:build integration

package integration

import (
	"math"
	"net/http"
	"net/url"
	"testing"
)

func adminID(t *testing.T) string {
	t.Helper()
	resp := do(t, http.MethodGet, "/api/users?"+url.Values{"email": {"admin@store.local"}}.Encode(), nil, adminToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[page[userResponse]](t, resp)
	if len(p.Data) != 1 {
		t.Fatalf("expected one admin, got %d", len(p.Data))
	}
	return p.Data[0].ID
}

func cheapestProducts(t *testing.T, n int) []productResponse {
	t.Helper()
	resp := doGet(t, "/api/products?_order=price&_size=10")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[page[productResponse]](t, resp)
	if len(p.Data) < n {
		t.Fatalf("expected at least %d products, got %d", n, len(p.Data))
	}
	return p.Data[:n]
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 0.005 }

func TestCartLifecycle(t *testing.T) {
	owner := adminID(t)
	products := cheapestProducts(t, 2)

	in := map[string]any{
		"userId": owner,
		"products": []map[string]any{
			{"productId": products[0].ID, "quantity": 5},
			{"productId": products[1].ID, "quantity": 1},
		},
	}

	resp := do(t, http.MethodPost, "/api/carts", in, adminToken)
	expectStatus(t, resp, http.StatusCreated)
	created := decodeJSON[envelope[cartResponse]](t, resp)
	resp.Body.Close()

	c := created.Data
	if c.Username != "admin" {
		t.Errorf("username: got %q, want admin", c.Username)
	}
	if len(c.Products) != 2 {
		t.Fatalf("expected 2 items, got %d", len(c.Products))
	}
	first := c.Products[0]
	if first.ProductTitle != products[0].Title || first.UnitPrice != products[0].Price {
		t.Errorf("item not enriched from catalog: %+v", first)
	}
	if first.Discount != 0.1 {
		t.Errorf("tier 1 discount: got %v, want 0.1", first.Discount)
	}
	if c.Products[1].Discount != 0 {
		t.Errorf("single item discount: got %v, want 0", c.Products[1].Discount)
	}
	want := products[0].Price*5*0.9 + products[1].Price
	if !closeTo(c.TotalAmount, want) {
		t.Errorf("totalAmount: got %v, want %v", c.TotalAmount, want)
	}

	in["products"] = []map[string]any{{"productId": products[0].ID, "quantity": 12}}
	resp = do(t, http.MethodPut, "/api/carts/"+c.ID, in, adminToken)
	expectStatus(t, resp, http.StatusOK)
	updated := decodeJSON[envelope[cartResponse]](t, resp)
	resp.Body.Close()
	if updated.Data.Products[0].Discount != 0.2 {
		t.Errorf("tier 2 discount: got %v, want 0.2", updated.Data.Products[0].Discount)
	}

	resp = do(t, http.MethodGet, "/api/carts?"+url.Values{"userId": {owner}}.Encode(), nil, adminToken)
	expectStatus(t, resp, http.StatusOK)
	listed := decodeJSON[page[cartResponse]](t, resp)
	resp.Body.Close()
	if listed.TotalCount < 1 {
		t.Errorf("expected the new cart in the owner's list, got %d", listed.TotalCount)
	}

	resp = do(t, http.MethodDelete, "/api/carts/"+c.ID, nil, adminToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, http.MethodGet, "/api/carts/"+c.ID, nil, adminToken)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCreateCart_QuantityLimit(t *testing.T) {
	products := cheapestProducts(t, 1)
	resp := do(t, http.MethodPost, "/api/carts", map[string]any{
		"userId":   adminID(t),
		"products": []map[string]any{{"productId": products[0].ID, "quantity": 21}},
	}, adminToken)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusUnprocessableEntity)
	if body := decodeJSON[errorResponse](t, resp); body.Type != "PolicyViolation" {
		t.Errorf("type: got %q, want PolicyViolation", body.Type)
	}
}

func TestCreateCart_Empty(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/carts", map[string]any{
		"userId":   adminID(t),
		"products": []map[string]any{},
	}, adminToken)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCreateCart_UnknownProduct(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/carts", map[string]any{
		"userId":   adminID(t),
		"products": []map[string]any{{"productId": "00000000-0000-0000-0000-000000000000", "quantity": 1}},
	}, adminToken)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)
}
