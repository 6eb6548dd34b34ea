package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"repairshop-backend/internal/config"
)

// NewCORS allows the admin app origins. Content-Disposition is exposed so
// the browser can read receipt and export file names.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
