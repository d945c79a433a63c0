package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oceanbites/oceanbites-backend/api/controllers"
	cartcontrollers "github.com/oceanbites/oceanbites-backend/api/controllers/cart"
	ordercontrollers "github.com/oceanbites/oceanbites-backend/api/controllers/orders"
	"github.com/oceanbites/oceanbites-backend/api/middleware"
	cartsvc "github.com/oceanbites/oceanbites-backend/internal/cart"
	"github.com/oceanbites/oceanbites-backend/internal/tracking"
	"github.com/oceanbites/oceanbites-backend/pkg/config"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store kv.Store,
	cartStore *cartsvc.Store,
	tracker *tracking.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartStore, logg))
			r.Delete("/", cartcontrollers.CartClear(cartStore, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartStore, logg))
			r.Post("/items/{itemId}/increment", cartcontrollers.CartIncrementItem(cartStore, logg))
			r.Post("/items/{itemId}/decrement", cartcontrollers.CartDecrementItem(cartStore, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(cartStore, logg))
			r.Post("/promo", cartcontrollers.PromoApply(cartStore, logg))
			r.Delete("/promo", cartcontrollers.PromoClear(cartStore, logg))
		})

		r.Post("/checkout", ordercontrollers.Checkout(tracker, logg))

		r.Route("/order", func(r chi.Router) {
			r.Get("/", ordercontrollers.Fetch(tracker, logg))
			r.Post("/cancel", ordercontrollers.Cancel(tracker, logg))
			r.Delete("/", ordercontrollers.Clear(tracker, logg))
		})
	})

	return r
}
