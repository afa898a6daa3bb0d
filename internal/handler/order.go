package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
	"github.com/pawmart/pawmart-api/internal/domain/order"
)

type checkoutAddress struct {
	Province string `json:"province"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Detail   string `json:"detail"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type checkoutRequest struct {
	Address        checkoutAddress `json:"address"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod string          `json:"shipping_method"`
	Note           string          `json:"note"`
	PromotionCode  string          `json:"promotion_code"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.orders.Checkout(r.Context(), id.UserID, order.CheckoutRequest{
		Address: order.Address{
			Province: req.Address.Province,
			District: req.Address.District,
			Ward:     req.Address.Ward,
			Detail:   req.Address.Detail,
			Name:     req.Address.Name,
			Phone:    req.Address.Phone,
		},
		PaymentMethod:  order.PaymentMethod(req.PaymentMethod),
		ShippingMethod: order.ShippingMethod(req.ShippingMethod),
		Note:           req.Note,
		PromotionCode:  req.PromotionCode,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, newOrderView(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	orders, err := h.orders.List(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = newOrderView(&orders[i])
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"), id.UserID, id.IsAdmin())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newOrderView(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newOrderView(o))
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req setStatusRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	next, err := order.ParseStatus(req.Status)
	if err != nil {
		respondFail(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), next, id.IsAdmin())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, newOrderView(o))
}
