package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/revstay/internal/auth"
	"github.com/MrJamesThe3rd/revstay/internal/http/booking"
	"github.com/MrJamesThe3rd/revstay/internal/http/payment"
	"github.com/MrJamesThe3rd/revstay/internal/http/respond"
)

type Options struct {
	Issuer      *auth.Issuer
	CORSOrigins []string
	// Ping reports backing store health for /healthz. Optional.
	Ping func(ctx context.Context) error
}

func New(opts Options, bookingsV1 *booking.Handler, paymentsV1 *payment.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", health(opts.Ping))

	router.Route("/api", func(r chi.Router) {
		r.Use(opts.Issuer.Authenticate)

		r.Route("/bookings", bookingsV1.Routes)
		r.Route("/payments", paymentsV1.Routes)
	})

	return router
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := ping(ctx); err != nil {
				respond.Status(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}

		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
