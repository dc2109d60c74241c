package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
	"github.com/beachatlas/beachatlas-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// 20 per minute = 20/60 = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// rateLimited returns a huma operation middleware that limits requests by
// client IP. Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) rateLimited(limiter *RateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.RemoteAddr())
		if !limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			metrics.RateLimited.WithLabelValues(ctx.Operation().Path).Inc()
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "",
				domainerrors.RateLimited("Too many requests. Please try again later."))
			return
		}
		next(ctx)
	}
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already replaced it with X-Forwarded-For / X-Real-IP when present.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(remoteAddr)
}
