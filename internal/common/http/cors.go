package http

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware allows credentialed cross-origin calls from the configured
// origins. With no origins configured it is a no-op.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization", traceIDHeader},
		ExposedHeaders:   []string{traceIDHeader, "Location"},
		AllowCredentials: true,
	})
	return c.Handler
}
