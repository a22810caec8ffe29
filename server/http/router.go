package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"transfer-service/internal/config"
	"transfer-service/internal/middleware"
	trHnd "transfer-service/internal/transfer/handler"
	"transfer-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) << 20))

	r.Get("/health", handlers.Health)

	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", trHnd.Transfers(cfg, logger))
		r.Post("/export", trHnd.Export(cfg, logger))
	})

	return r
}
