package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shannu2342/wholexale-backend/api/controllers"
	"github.com/shannu2342/wholexale-backend/api/middleware"
	"github.com/shannu2342/wholexale-backend/internal/notifications"
	"github.com/shannu2342/wholexale-backend/internal/offers"
	"github.com/shannu2342/wholexale-backend/internal/realtime"
	"github.com/shannu2342/wholexale-backend/pkg/auth/session"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/db"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Cache           controllers.CachePinger
	Idempotency     redis.IdempotencyStore
	Sessions        session.AccessSessionChecker
	RateLimiter     controllers.HandshakeLimiter
	Offers          offers.Service
	Notifications   notifications.Service
	Hub             *realtime.Hub
	RealtimeHandler *realtime.Handler
}

// NewRouter assembles the REST and WebSocket surface.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Cache))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Get("/ws", controllers.WebSocket(cfg, p.Sessions, p.RateLimiter, p.Hub, p.RealtimeHandler, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		if p.Idempotency != nil {
			r.Use(middleware.Idempotency(p.Idempotency, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/offers", func(r chi.Router) {
			r.Post("/", controllers.CreateOffer(p.Offers, logg))
			r.Get("/", controllers.ListOffers(p.Offers, logg))
			r.Get("/analytics/summary", controllers.OfferAnalyticsSummary(p.Offers, logg))
			r.Get("/{offerId}", controllers.GetOffer(p.Offers, logg))
			r.Put("/{offerId}/respond", controllers.RespondOffer(p.Offers, logg))
			r.Put("/{offerId}/withdraw", controllers.WithdrawOffer(p.Offers, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}
