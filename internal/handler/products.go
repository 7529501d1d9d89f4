package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}
	p, err := h.products.List(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, p, h.encodeProduct)
}

func (h *Handler) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}
	p, err := h.products.ListByCategory(r.Context(), r.PathValue("category"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, p, h.encodeProduct)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Categories retrieved successfully", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				e.Str(c)
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Product retrieved successfully", func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Product created successfully", func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.products.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Product updated successfully", func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Product deleted successfully", nil)
}
