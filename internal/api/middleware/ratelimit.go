package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/inboxkit/inboxkit/internal/api/response"
	"github.com/inboxkit/inboxkit/internal/logger"
)

// IPRateLimiter manages rate limiters per IP address
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// GetLimiter returns the rate limiter for the given IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.limiters[ip] = limiter
	}

	return limiter
}

// CleanupOldEntries removes old entries from the limiter map.
// Should be called periodically to bound memory.
func (i *IPRateLimiter) CleanupOldEntries() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.limiters = make(map[string]*rate.Limiter)
}

// RateLimiter returns rate limiting middleware configured from the
// RATE_LIMIT_REQUESTS and RATE_LIMIT_BURST environment variables.
func RateLimiter(sec *logger.SecurityLogger) echo.MiddlewareFunc {
	requestsPerSecond := 10.0
	burst := 20

	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			requestsPerSecond = v
		}
	}
	if b := os.Getenv("RATE_LIMIT_BURST"); b != "" {
		if v, err := strconv.Atoi(b); err == nil {
			burst = v
		}
	}

	limiter := NewIPRateLimiter(rate.Limit(requestsPerSecond), burst)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.CleanupOldEntries()
		}
	}()

	return limitWith(limiter, sec)
}

// RateLimiterWithConfig returns rate limiting middleware with explicit
// limits.
func RateLimiterWithConfig(requestsPerSecond float64, burst int, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return limitWith(NewIPRateLimiter(rate.Limit(requestsPerSecond), burst), sec)
}

func limitWith(limiter *IPRateLimiter, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.GetLimiter(ip).Allow() {
				if sec != nil {
					sec.RateLimitExceeded(ip, c.Path())
				}

				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, response.ErrorResponse{
					Success: false,
					Error:   "rate limit exceeded",
					Code:    "RATE_LIMITED",
				})
			}

			return next(c)
		}
	}
}
