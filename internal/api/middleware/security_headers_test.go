package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func secureHeadersResponse(t *testing.T, tls bool) http.Header {
	t.Helper()

	e := echo.New()
	e.Use(SecureHeaders())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if tls {
		req.Header.Set(echo.HeaderXForwardedProto, "https")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Header()
}

func TestSecureHeaders_SetsAPIHeaderSet(t *testing.T) {
	h := secureHeadersResponse(t, false)

	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
}

func TestSecureHeaders_NoHSTSOverPlainHTTP(t *testing.T) {
	h := secureHeadersResponse(t, false)

	assert.Empty(t, h.Get("Strict-Transport-Security"))
}

func TestSecureHeaders_HSTSWhenForwardedAsHTTPS(t *testing.T) {
	h := secureHeadersResponse(t, true)

	assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=")
}
