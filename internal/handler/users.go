package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-backoffice/internal/domain/user"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in user.Input
	if !h.decode(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "User created successfully", func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}
	p, err := h.users.List(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, p, encodeUser)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "User retrieved successfully", func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var in user.Input
	if !h.decode(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "User updated successfully", func(e *jx.Encoder) { encodeUser(e, u) })
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "User deleted successfully", nil)
}
