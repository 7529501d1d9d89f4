package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-backoffice/internal/domain/cart"
)

func (h *Handler) listCarts(w http.ResponseWriter, r *http.Request) {
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}
	p, err := h.carts.List(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, p, encodeCart)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Cart retrieved successfully", func(e *jx.Encoder) { encodeCart(e, c) })
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	var in cart.Input
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.carts.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Cart created successfully", func(e *jx.Encoder) { encodeCart(e, c) })
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	var in cart.Input
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.carts.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Cart updated successfully", func(e *jx.Encoder) { encodeCart(e, c) })
}

func (h *Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Cart deleted successfully", nil)
}
