package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/middleware"
	"github.com/inboxkit/inboxkit/internal/api/response"
	"github.com/inboxkit/inboxkit/internal/services"
)

// InboxHandler handles inbox-related HTTP requests
type InboxHandler struct {
	inboxes *services.InboxService
}

// NewInboxHandler creates a new InboxHandler
func NewInboxHandler(inboxes *services.InboxService) *InboxHandler {
	return &InboxHandler{inboxes: inboxes}
}

// CreateInboxRequest represents the request body for creating an inbox
type CreateInboxRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Create handles POST /api/inboxes
func (h *InboxHandler) Create(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	var req CreateInboxRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "name is required")
	}

	inbox, err := h.inboxes.Create(c.Request().Context(), org, services.CreateInboxInput{
		Name:   req.Name,
		Domain: req.Domain,
		Email:  req.Email,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, inbox)
}

// List handles GET /api/inboxes
func (h *InboxHandler) List(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	inboxes, err := h.inboxes.List(c.Request().Context(), org.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, inboxes)
}

// Get handles GET /api/inboxes/:id
func (h *InboxHandler) Get(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}

	inbox, err := h.inboxes.Get(c.Request().Context(), org.ID, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, inbox)
}

// Delete handles DELETE /api/inboxes/:id
func (h *InboxHandler) Delete(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}

	if _, err := h.inboxes.Delete(c.Request().Context(), org.ID, id); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
