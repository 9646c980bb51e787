package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/middleware"
	"github.com/inboxkit/inboxkit/internal/api/response"
	"github.com/inboxkit/inboxkit/internal/services"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	To               []string `json:"to"`
	Cc               []string `json:"cc,omitempty"`
	Bcc              []string `json:"bcc,omitempty"`
	Subject          string   `json:"subject,omitempty"`
	Text             string   `json:"text,omitempty"`
	HTML             string   `json:"html,omitempty"`
	Labels           []string `json:"labels,omitempty"`
	ReplyToMessageID *uint    `json:"reply_to_message_id,omitempty"`
}

// Send handles POST /api/inboxes/:id/messages
func (h *MessageHandler) Send(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	inboxID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(req.To) == 0 {
		return response.BadRequest(c, "at least one recipient is required")
	}

	message, err := h.messages.Send(c.Request().Context(), org, inboxID, services.SendMessageInput{
		To:               req.To,
		Cc:               req.Cc,
		Bcc:              req.Bcc,
		Subject:          req.Subject,
		Text:             req.Text,
		HTML:             req.HTML,
		Labels:           req.Labels,
		ReplyToMessageID: req.ReplyToMessageID,
	})
	if err != nil {
		// The message row survives a provider rejection; the error
		// status still goes to the caller.
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// List handles GET /api/inboxes/:id/messages. An optional query
// parameter filters by subject, body, and addresses.
func (h *MessageHandler) List(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	inboxID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}

	messages, err := h.messages.Search(c.Request().Context(), org.ID, inboxID, c.QueryParam("query"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	message, err := h.messages.Get(c.Request().Context(), org.ID, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}
