package orders

import (
	"net/http"

	"github.com/oceanbites/oceanbites-backend/api/responses"
	"github.com/oceanbites/oceanbites-backend/api/validators"
	"github.com/oceanbites/oceanbites-backend/internal/tracking"
	pkgerrors "github.com/oceanbites/oceanbites-backend/pkg/errors"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
)

// CheckoutRequest carries the customer-facing order fields.
type CheckoutRequest struct {
	CustomerName    string `json:"customerName" validate:"required"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required"`
	Notes           string `json:"notes"`
	PaymentMethod   string `json:"paymentMethod" validate:"required"`
}

// Checkout finalizes the cart into a tracked order.
func Checkout(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order tracker unavailable"))
			return
		}

		var payload CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), tracking.CheckoutInput{
			CustomerName:    payload.CustomerName,
			DeliveryAddress: payload.DeliveryAddress,
			Notes:           payload.Notes,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Fetch returns the active order, if any.
func Fetch(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order tracker unavailable"))
			return
		}

		order, ok := svc.Current()
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active order"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Cancel marks the active order cancelled; cancelling a terminal order
// is a no-op returning its current state.
func Cancel(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order tracker unavailable"))
			return
		}

		order, err := svc.Cancel(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Clear tears down the active order so the storefront can start fresh.
func Clear(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order tracker unavailable"))
			return
		}

		svc.Clear(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
