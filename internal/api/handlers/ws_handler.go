package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "github.com/inboxkit/inboxkit/internal/websocket"
)

// WSHandler upgrades HTTP connections and registers clients with the hub.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler. When secureOrigins is true the
// upgrader enforces the ALLOWED_ORIGINS whitelist.
func NewWSHandler(hub *ws.Hub, secureOrigins bool, logger *slog.Logger) *WSHandler {
	upgrader := ws.DefaultUpgrader()
	if secureOrigins {
		upgrader = ws.NewSecureUpgrader(logger)
	}
	return &WSHandler{hub: hub, upgrader: upgrader, logger: logger}
}

// Connect handles GET /ws
func (h *WSHandler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}

	client := ws.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
