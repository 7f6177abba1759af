package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/handlers/userctx"
)

const rateLimitPrefix = "metalrezerv:ratelimit"

type limitLogger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewLimiter creates limiter from formatted rate like "10-M"
// Limits are kept in redis if client is given, in process memory otherwise
func NewLimiter(formatted string, client redis.UniversalClient) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	opts := limiter.StoreOptions{Prefix: rateLimitPrefix}

	if client == nil {
		return limiter.New(memory.NewStoreWithOptions(opts), rate), nil
	}

	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}

	return limiter.New(store, rate), nil
}

// RateLimitMiddleware limits requests per authenticated user, per client IP for anonymous requests
func RateLimitMiddleware(lim *limiter.Limiter, l limitLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)

			lctx, err := lim.Get(r.Context(), key)
			if err != nil {
				l.Error("Failed to get rate limit context", "key", key, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				l.Warn("Rate limit exceeded", "key", key, "limit", lctx.Limit)
				render.ServiceError(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if user, ok := userctx.FromContext(r.Context()); ok {
		return "user:" + user.ID.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
