//go:build integration

package integration

import (
	"net/http"
	"net/url"
	"testing"
)

func TestListProducts_Page(t *testing.T) {
	resp := doGet(t, "/api/products?_page=2&_size=4&_order=price%20desc")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[page[productResponse]](t, resp)
	if p.TotalCount != seededProducts || p.TotalPages != 3 || p.CurrentPage != 2 || p.PageSize != 4 {
		t.Fatalf("unexpected paging: %+v", p)
	}
	if len(p.Data) != 4 {
		t.Fatalf("expected 4 products, got %d", len(p.Data))
	}
	for i := 1; i < len(p.Data); i++ {
		if p.Data[i-1].Price < p.Data[i].Price {
			t.Errorf("not sorted by price desc at %d: %v < %v", i, p.Data[i-1].Price, p.Data[i].Price)
		}
	}
}

func TestListProducts_Filters(t *testing.T) {
	q := url.Values{"category": {"men's clothing"}, "title": {"Mens*"}}
	resp := doGet(t, "/api/products?"+q.Encode())
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[page[productResponse]](t, resp)
	if p.TotalCount != 2 {
		t.Fatalf("expected 2 products, got %d", p.TotalCount)
	}
	for _, pr := range p.Data {
		if pr.Category != "men's clothing" {
			t.Errorf("category: got %q", pr.Category)
		}
	}
}

func TestListProducts_InvalidPage(t *testing.T) {
	resp := doGet(t, "/api/products?_page=0")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
	if body := decodeJSON[errorResponse](t, resp); body.Type != "ValidationError" {
		t.Errorf("type: got %q, want ValidationError", body.Type)
	}
}

func TestCategories(t *testing.T) {
	resp := doGet(t, "/api/products/categories")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[envelope[[]string]](t, resp)
	want := []string{"electronics", "jewelery", "men's clothing", "women's clothing"}
	if len(body.Data) != len(want) {
		t.Fatalf("categories: got %v, want %v", body.Data, want)
	}
	for i := range want {
		if body.Data[i] != want[i] {
			t.Errorf("category %d: got %q, want %q", i, body.Data[i], want[i])
		}
	}
}

func TestListByCategory(t *testing.T) {
	resp := doGet(t, "/api/products/category/"+url.PathEscape("jewelery"))
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)
	if p := decodeJSON[page[productResponse]](t, resp); p.TotalCount != 2 {
		t.Fatalf("expected 2 products, got %d", p.TotalCount)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)
	if body := decodeJSON[errorResponse](t, resp); body.Type != "ResourceNotFound" {
		t.Errorf("type: got %q, want ResourceNotFound", body.Type)
	}
}

func TestProductLifecycle(t *testing.T) {
	in := map[string]any{
		"title":       "Integration Desk Lamp",
		"price":       "24.50",
		"description": "A lamp created by the integration suite.",
		"category":    "electronics",
		"image":       "https://img.example/lamp.jpg",
		"rating":      map[string]any{"rate": 4.2, "count": 12},
	}

	resp := do(t, http.MethodPost, "/api/products", in, adminToken)
	expectStatus(t, resp, http.StatusCreated)
	created := decodeJSON[envelope[productResponse]](t, resp)
	resp.Body.Close()
	if created.Data.ID == "" || created.Data.Price != 24.5 {
		t.Fatalf("unexpected product: %+v", created.Data)
	}

	// Titles are unique.
	resp = do(t, http.MethodPost, "/api/products", in, adminToken)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	in["price"] = "19.99"
	resp = do(t, http.MethodPut, "/api/products/"+created.Data.ID, in, adminToken)
	expectStatus(t, resp, http.StatusOK)
	updated := decodeJSON[envelope[productResponse]](t, resp)
	resp.Body.Close()
	if updated.Data.Price != 19.99 {
		t.Errorf("price: got %v, want 19.99", updated.Data.Price)
	}

	resp = do(t, http.MethodDelete, "/api/products/"+created.Data.ID, nil, adminToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doGet(t, "/api/products/"+created.Data.ID)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}
