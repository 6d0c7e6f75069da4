package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olimpiec/shop-backend/api/controllers"
	"github.com/olimpiec/shop-backend/api/middleware"
	orderssvc "github.com/olimpiec/shop-backend/internal/orders"
	paymentssvc "github.com/olimpiec/shop-backend/internal/payments"
	"github.com/olimpiec/shop-backend/pkg/config"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

// NewRouter wires the HTTP surface. The cache pinger and the metrics handler
// are optional.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	cache controllers.Pinger,
	ordersService orderssvc.Service,
	paymentsService paymentssvc.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(ordersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(ordersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/create", controllers.CreatePaymentSession(paymentsService, logg))
			r.Post("/webhook", controllers.PaymentWebhook(paymentsService, logg))
			r.Get("/status/{orderID}", controllers.PaymentStatus(paymentsService, logg))
		})
	})

	return r
}
