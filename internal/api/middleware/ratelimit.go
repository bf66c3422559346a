package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/modernshop/shop-api/internal/pkg/metrics"
)

// RateLimitMessage is returned with every 429.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimitConfig configures the per-IP limiter applied to /api routes.
type RateLimitConfig struct {
	// Store decides whether a client may proceed. Use NewMemoryRateLimitStore
	// for a single instance or the Redis store when instances share a budget.
	Store echomw.RateLimiterStore
	// Backend labels metrics and logs, e.g. "memory" or "redis".
	Backend string
	Logger  zerolog.Logger
}

// NewMemoryRateLimitStore allows bursts of up to requests per client, refilled
// evenly over window. Idle clients are forgotten after one window.
func NewMemoryRateLimitStore(requests int, window time.Duration) *echomw.RateLimiterMemoryStore {
	return echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(requests) / window.Seconds()),
		Burst:     requests,
		ExpiresIn: window,
	})
}

// RateLimit limits requests under /api per client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := failOpenStore{next: cfg.Store, backend: cfg.Backend, logger: cfg.Logger}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			metrics.RateLimitedTotal.WithLabelValues(cfg.Backend).Inc()
			return echo.NewHTTPError(http.StatusTooManyRequests, RateLimitMessage)
		},
	})
}

// failOpenStore lets requests through when the backing store errors.
type failOpenStore struct {
	next    echomw.RateLimiterStore
	backend string
	logger  zerolog.Logger
}

func (s failOpenStore) Allow(identifier string) (bool, error) {
	allowed, err := s.next.Allow(identifier)
	if err != nil {
		metrics.RateLimiterErrorsTotal.Inc()
		s.logger.Warn().Err(err).Str("backend", s.backend).Msg("rate limiter unavailable, allowing request")
		return true, nil
	}
	return allowed, nil
}
