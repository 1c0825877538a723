package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/gearhub-backend/api/responses"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local storefront
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CartTokenHeader, "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{CartTokenHeader, responses.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
