package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
)

type validatePromotionRequest struct {
	Code string `json:"code"`
}

type promotionValidationView struct {
	Code         string          `json:"code"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping"`
}

// validatePromotion evaluates a code against the caller's current cart
// subtotal. Evaluation is read-only: the promotion's usage counter moves only
// when an order is actually placed.
func (h *Handler) validatePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req validatePromotionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.carts.Get(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, d, err := h.promotions.Evaluate(r.Context(), req.Code, c.Summary.Subtotal)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, promotionValidationView{
		Code:         p.Code,
		Type:         string(p.Type),
		Description:  d.Description,
		Discount:     d.Amount,
		FreeShipping: d.FreeShipping,
	})
}
