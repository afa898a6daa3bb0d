package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	c, err := h.carts.Get(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newCartView(c))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req addItemRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ProductID == "" || req.VariantID == "" {
		respondFail(w, http.StatusBadRequest, "product_id and variant_id required")
		return
	}

	item, err := h.carts.Add(r.Context(), id.UserID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, newCartItemView(*item))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req updateQuantityRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	item, err := h.carts.UpdateQuantity(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newCartItemView(*item))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	if err := h.carts.Remove(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "item removed")
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	if err := h.carts.Clear(r.Context(), id.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "cart cleared")
}
