package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ekamauln/livo-mobile-order/api/controllers"
	"github.com/ekamauln/livo-mobile-order/api/middleware"
	"github.com/ekamauln/livo-mobile-order/pkg/config"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// NewRouter wires the station's local endpoints: the wedge bridge
// feeding scan deltas, the operator session, the picking and
// assignment flows, and status polling.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	bridge controllers.ScanBridge,
	svc controllers.StationService,
	sessions controllers.SessionService,
	deps map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.Healthz(cfg, logg, deps))

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(sessions, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, logg))
	})

	r.Route("/v1/scan", func(r chi.Router) {
		r.Post("/delta", controllers.ScanDelta(bridge, logg))
		r.Post("/submit", controllers.ScanSubmit(bridge, logg))
		r.Put("/listening", controllers.ScanListening(bridge, logg))
	})

	r.Route("/v1/orders", func(r chi.Router) {
		r.Get("/", controllers.OrdersList(svc, logg))
		r.Post("/{orderID}/open", controllers.OrderOpen(svc, logg))
		r.Post("/close", controllers.OrderClose(svc, logg))
		r.Put("/items/{itemID}/target", controllers.ItemTarget(svc, logg))
		r.Post("/items/{itemID}/quantity", controllers.ItemQuantity(svc, logg))
		r.Post("/complete", controllers.OrderComplete(svc, logg))
		r.Post("/pending", controllers.OrderPending(svc, logg))
	})

	r.Route("/v1/assign", func(r chi.Router) {
		r.Post("/start", controllers.AssignStart(svc, logg))
		r.Post("/pause", controllers.AssignPause(svc, logg))
		r.Post("/submit", controllers.AssignSubmit(svc, logg))
		r.Delete("/trackings/{tracking}", controllers.AssignRemoveTracking(svc, logg))
	})

	r.Get("/v1/status", controllers.StationStatus(svc, logg))

	return r
}
