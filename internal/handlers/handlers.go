// Package handlers - локальный JSON API для UI-оболочки поверх ядра ReceiptKeeper.
package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ReceiptKeeper/internal/bootstrap"
	"ReceiptKeeper/internal/middleware"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(core *bootstrap.Core, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := chi.NewRouter()

	r.Use(middleware.WithRequestID)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(core.Config.AuthSecret))

	sessionHandler := NewSessionHandler(core.PIN, core.Data.Users, logger, core.Config.AuthSecret)
	receiptHandler := NewReceiptHandler(core.Data.Receipts, logger)
	userHandler := NewUserHandler(core.Data.Users, core.Data.Settings, logger)
	marketHandler := NewMarketHandler(core.Market, logger)
	eventsHandler := NewEventsHandler(core.Bus, logger)

	r.Post("/api/session", sessionHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		// Receipts
		r.Get("/api/users/{userID}/receipts", receiptHandler.List)
		r.Post("/api/users/{userID}/receipts", receiptHandler.Create)
		r.Delete("/api/users/{userID}/receipts", receiptHandler.DeleteAll)
		r.Patch("/api/receipts/{id}", receiptHandler.Update)
		r.Delete("/api/receipts/{id}", receiptHandler.Delete)

		// Users / settings
		r.Put("/api/users", userHandler.Upsert)
		r.Get("/api/users/{userID}/settings", userHandler.GetSettings)
		r.Put("/api/users/{userID}/settings", userHandler.PutSettings)

		// Market
		r.Get("/api/market/{symbol}/{granularity}", marketHandler.Series)

		// ChangeBus → SSE
		r.Get("/api/events", eventsHandler.Stream)
	})

	return &Handler{Router: r}
}
