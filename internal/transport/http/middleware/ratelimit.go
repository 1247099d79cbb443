package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"bizdash/internal/transport/http/api"
)

// RateLimit caps requests per actor, falling back to the client IP for
// anonymous callers.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(actorOrIPKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		}),
	)
}

func actorOrIPKey(r *http.Request) (string, error) {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
