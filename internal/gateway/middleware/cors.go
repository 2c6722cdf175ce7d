package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

var corsAllowedHeaders = []string{
	"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization",
	"X-Request-Id", "Connect-Protocol-Version", "Connect-Timeout-Ms",
}

var corsExposedHeaders = []string{
	"X-Request-Id", "Connect-Content-Encoding", "Connect-Accept-Encoding",
}

// CORS wraps next with a policy for the given origins. "*" or an empty list
// allows any origin; credentials are only allowed for explicit origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	anyOrigin := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: corsAllowedHeaders,
		ExposedHeaders: corsExposedHeaders,
	}
	if anyOrigin {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowCredentials = true
	}
	c := cors.New(opts)
	return c.Handler
}
