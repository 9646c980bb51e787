package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse reports overall status plus a per-component breakdown.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health. It answers 503 when the database is
// unreachable so load balancers stop routing to this instance.
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:     "healthy",
		Components: map[string]string{"database": "healthy"},
	}

	if err := h.pingDatabase(); err != nil {
		resp.Status = "unhealthy"
		resp.Components["database"] = "unhealthy"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(c echo.Context) error {
	if err := h.pingDatabase(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) pingDatabase() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
