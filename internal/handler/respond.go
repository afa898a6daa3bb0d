package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
	"github.com/pawmart/pawmart-api/internal/domain/cart"
	"github.com/pawmart/pawmart-api/internal/domain/catalog"
	"github.com/pawmart/pawmart-api/internal/domain/order"
	"github.com/pawmart/pawmart-api/internal/domain/promotion"
)

// maxBodySize bounds request bodies; the largest legitimate payload is a
// checkout request.
const maxBodySize = 1 << 20

// envelope is the uniform JSON response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Message: msg})
}

// respondError maps domain errors onto HTTP statuses. Unrecognized errors are
// logged and reported as an opaque 500 so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

func errorStatus(err error) int {
	var (
		outOfStock    *cart.OutOfStockError
		stockConflict *order.StockConflictError
		badTransition *order.InvalidTransitionError
	)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, promotion.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, promotion.ErrLimitReached),
		errors.As(err, &outOfStock),
		errors.As(err, &stockConflict),
		errors.As(err, &badTransition):
		return http.StatusConflict
	case errors.Is(err, errBadJSON),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, promotion.ErrEmptyCode),
		errors.Is(err, promotion.ErrExpired),
		errors.Is(err, promotion.ErrMinAmountNotMet),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrInvalidShippingMethod):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errBadJSON is returned by decode for unparseable request bodies.
var errBadJSON = errors.New("invalid JSON body")

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return errBadJSON
	}
	return nil
}

// respondFail writes a failure envelope with an explicit status, for cases
// that do not originate from a domain error.
func respondFail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}
