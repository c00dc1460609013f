package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/staybook/payment-service/internal/payment"
	"github.com/staybook/payment-service/internal/refund"
	"github.com/staybook/payment-service/internal/transport/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, paymentHandler *payment.Handler, refundHandler *refund.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if paymentHandler != nil {
			r.Route("/payments", func(pr chi.Router) {
				pr.Post("/", paymentHandler.PreparePayment)             // POST /payments
				pr.Post("/confirm", paymentHandler.ConfirmPayment)      // POST /payments/confirm
				pr.Get("/{paymentID}", paymentHandler.GetPayment)       // GET /payments/:id
				pr.Post("/{paymentID}/cancel", paymentHandler.CancelPayment) // POST /payments/:id/cancel

				if refundHandler != nil {
					pr.Get("/{paymentID}/refunds", refundHandler.GetRefundsForPayment) // GET /payments/:id/refunds
				}
			})
		}

		if refundHandler != nil {
			r.Route("/refunds", func(rr chi.Router) {
				rr.Post("/", refundHandler.RequestRefund)   // POST /refunds
				rr.Get("/{refundID}", refundHandler.GetRefund) // GET /refunds/:id
			})
		}
	})
}
