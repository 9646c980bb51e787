package handlers

import (
	"errors"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/middleware"
	"github.com/inboxkit/inboxkit/internal/api/response"
	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/services"
)

// WebhookHandler handles webhook registration and the delivery audit
// trail.
type WebhookHandler struct {
	webhooks repository.WebhookRepository
	attempts repository.WebhookAttemptRepository
	notifier *services.WebhookNotifier
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	webhooks repository.WebhookRepository,
	attempts repository.WebhookAttemptRepository,
	notifier *services.WebhookNotifier,
) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		attempts: attempts,
		notifier: notifier,
	}
}

// CreateWebhookRequest represents the request body for registering a webhook
type CreateWebhookRequest struct {
	URL    string                `json:"url"`
	Events []models.WebhookEvent `json:"events"`
	Secret string                `json:"secret,omitempty"`
}

// Create handles POST /api/webhooks
func (h *WebhookHandler) Create(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	var req CreateWebhookRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.URL == "" {
		return response.BadRequest(c, "url is required")
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return response.BadRequest(c, "url must be a valid http(s) URL")
	}
	if len(req.Events) == 0 {
		return response.BadRequest(c, "at least one event is required")
	}
	for _, event := range req.Events {
		if !event.IsValid() {
			return response.BadRequest(c, "unknown event: "+string(event))
		}
	}

	webhook := &models.Webhook{
		OrganizationID: org.ID,
		URL:            req.URL,
		Events:         req.Events,
		Secret:         req.Secret,
	}
	if err := h.webhooks.Create(c.Request().Context(), webhook); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, webhook)
}

// List handles GET /api/webhooks
func (h *WebhookHandler) List(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	webhooks, err := h.webhooks.ListByOrganization(c.Request().Context(), org.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, webhooks)
}

// Get handles GET /api/webhooks/:id
func (h *WebhookHandler) Get(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid webhook ID")
	}

	webhook, err := h.webhooks.GetByOrganizationAndID(c.Request().Context(), org.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Error(c, apperrors.ErrWebhookNotFound)
		}
		return response.Error(c, err)
	}

	return response.Success(c, webhook)
}

// Delete handles DELETE /api/webhooks/:id
func (h *WebhookHandler) Delete(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid webhook ID")
	}

	if err := h.webhooks.Delete(c.Request().Context(), org.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Error(c, apperrors.ErrWebhookNotFound)
		}
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

// Test handles POST /api/webhooks/:id/test, delivering a synthetic
// payload to the webhook regardless of its subscriptions.
func (h *WebhookHandler) Test(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid webhook ID")
	}

	webhook, err := h.webhooks.GetByOrganizationAndID(c.Request().Context(), org.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Error(c, apperrors.ErrWebhookNotFound)
		}
		return response.Error(c, err)
	}

	h.notifier.SendTest(c.Request().Context(), webhook)

	return response.SuccessWithMessage(c, nil, "test delivery dispatched")
}

// Attempts handles GET /api/webhooks/:id/attempts
func (h *WebhookHandler) Attempts(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid webhook ID")
	}

	if _, err := h.webhooks.GetByOrganizationAndID(c.Request().Context(), org.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Error(c, apperrors.ErrWebhookNotFound)
		}
		return response.Error(c, err)
	}

	attempts, err := h.attempts.ListByWebhook(c.Request().Context(), org.ID, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, attempts)
}
