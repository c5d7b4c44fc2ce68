package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
)

// RateLimit limits mutating ledger requests to perMinute per client IP.
// A non-positive limit disables limiting.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			response.RespondError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
		}),
	)
}
