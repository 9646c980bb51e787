package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/services"
)

// CallbackHandler receives the provider's push notifications. The
// endpoint always acknowledges with 200: there is no requeue protocol
// on the push channel, so processing failures are absorbed downstream.
type CallbackHandler struct {
	processor *services.NotificationProcessor
}

// NewCallbackHandler creates a new CallbackHandler
func NewCallbackHandler(processor *services.NotificationProcessor) *CallbackHandler {
	return &CallbackHandler{processor: processor}
}

// Receive handles POST /callbacks/email
func (h *CallbackHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}

	var envelope mail.PushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.NoContent(http.StatusOK)
	}
	// Subscription confirmations and other envelope types are ignored
	if envelope.Type != mail.EnvelopeTypeNotification {
		return c.NoContent(http.StatusOK)
	}

	h.processor.HandleNotification(c.Request().Context(), []byte(envelope.Message))

	return c.NoContent(http.StatusOK)
}
