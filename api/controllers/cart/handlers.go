package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oceanbites/oceanbites-backend/api/responses"
	"github.com/oceanbites/oceanbites-backend/api/validators"
	cartsvc "github.com/oceanbites/oceanbites-backend/internal/cart"
	pkgerrors "github.com/oceanbites/oceanbites-backend/pkg/errors"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
)

// CartFetch exposes the current cart view with derived pricing.
func CartFetch(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.View())
	}
}

// CartAddItem appends a candidate line or bumps an existing one.
func CartAddItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := store.AddItem(r.Context(), cartsvc.AddItemInput{
			ItemID:    payload.ItemID,
			Name:      payload.Name,
			UnitPrice: payload.UnitPrice,
			Notes:     payload.Notes,
		})
		responses.WriteSuccess(w, view)
	}
}

// CartIncrementItem bumps the quantity of an existing line.
func CartIncrementItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.IncrementItem(r.Context(), chi.URLParam(r, "itemId")))
	}
}

// CartDecrementItem lowers the quantity, dropping the line at zero.
func CartDecrementItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.DecrementItem(r.Context(), chi.URLParam(r, "itemId")))
	}
}

// CartRemoveItem drops the line unconditionally.
func CartRemoveItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.RemoveItem(r.Context(), chi.URLParam(r, "itemId")))
	}
}

// CartClear empties the lines; the promo survives until cleared.
func CartClear(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.ClearCart(r.Context()))
	}
}

// PromoApply replaces the current promo wholesale, including codes that
// resolve to zero discount.
func PromoApply(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload ApplyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.ApplyPromo(r.Context(), payload.Code))
	}
}

// PromoClear resets the promo selection.
func PromoClear(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.ClearPromo(r.Context()))
	}
}
