package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// developmentOrigin is the only origin allowed when none are configured.
const developmentOrigin = "http://localhost:3000"

// SecureCORS builds the CORS policy from the ALLOWED_ORIGINS
// environment variable. The wildcard origin is stripped in production
// so a misconfigured deployment fails closed.
func SecureCORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func corsOrigins() []string {
	production := os.Getenv("APP_ENV") == "production"

	var origins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if production && origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}

	if len(origins) == 0 {
		origins = []string{developmentOrigin}
	}
	return origins
}
