// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/response"
	"github.com/inboxkit/inboxkit/internal/logger"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
)

// OrganizationContextKey is the echo context key the resolved
// organization is stored under.
const OrganizationContextKey = "organization"

// APIKeyAuth resolves the bearer token to an organization. Every
// request below the authenticated group runs scoped to that
// organization; an unknown or missing key is a 401. Failures land on
// the security log, never with the key itself.
func APIKeyAuth(keys repository.ApiKeyRepository, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "missing_authorization_header")
				}
				return response.Unauthorized(c, "missing authorization header")
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "empty_api_key")
				}
				return response.Unauthorized(c, "missing API key")
			}

			apiKey, err := keys.GetByKey(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					if sec != nil {
						sec.AuthFailure(c.RealIP(), c.Path(), "unknown_api_key")
					}
					return response.Unauthorized(c, "invalid API key")
				}
				return response.InternalError(c, "failed to authenticate")
			}

			c.Set(OrganizationContextKey, &apiKey.Organization)
			return next(c)
		}
	}
}

// OrganizationFromContext returns the organization resolved by
// APIKeyAuth, or nil when the request is unauthenticated.
func OrganizationFromContext(c echo.Context) *models.Organization {
	org, _ := c.Get(OrganizationContextKey).(*models.Organization)
	return org
}
