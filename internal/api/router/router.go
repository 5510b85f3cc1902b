package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thirdeyevisualz/studio/internal/analytics"
	"github.com/thirdeyevisualz/studio/internal/availability"
	"github.com/thirdeyevisualz/studio/internal/booking"
	httpmiddleware "github.com/thirdeyevisualz/studio/internal/http/middleware"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	BookingHandler      *booking.Handler
	AnalyticsHandler    *analytics.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	// Throttle, when set, limits every request per client IP.
	Throttle *httpmiddleware.RateLimiter

	// Feature flags. A disabled feature has no routes.
	EnableBookingCalendar bool
	EnableAnalytics       bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.Throttle != nil {
			api.Use(httpmiddleware.RateLimit(cfg.Throttle))
		}
		api.Use(httpmiddleware.ClientKey)

		if h := cfg.AvailabilityHandler; h != nil && cfg.EnableBookingCalendar {
			api.Get("/availability/{year}/{month}", h.Month)
			api.Get("/availability/dates/{date}/slots", h.Slots)
			api.Route("/booking/sessions", func(s chi.Router) {
				s.Post("/", h.OpenSession)
				s.Route("/{id}", func(one chi.Router) {
					one.Get("/", h.GetSession)
					one.Delete("/", h.CloseSession)
					one.Post("/navigate", h.Navigate)
					one.Post("/date", h.SelectDate)
					one.Post("/slot", h.SelectSlot)
					one.Post("/reset", h.Reset)
					if cfg.BookingHandler != nil {
						one.Post("/submit", cfg.BookingHandler.SessionBooking)
					}
				})
			})
		}
		if h := cfg.BookingHandler; h != nil {
			api.Post("/booking", h.Booking)
			api.Post("/contact", h.Contact)
		}
		if cfg.AnalyticsHandler != nil && cfg.EnableAnalytics {
			api.Post("/events", cfg.AnalyticsHandler.Ingest)
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
