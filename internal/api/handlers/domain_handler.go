package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/middleware"
	"github.com/inboxkit/inboxkit/internal/api/response"
	"github.com/inboxkit/inboxkit/internal/services"
)

// DomainHandler handles custom domain HTTP requests
type DomainHandler struct {
	domains *services.DomainService
}

// NewDomainHandler creates a new DomainHandler
func NewDomainHandler(domains *services.DomainService) *DomainHandler {
	return &DomainHandler{domains: domains}
}

// CreateDomainRequest represents the request body for registering a domain
type CreateDomainRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/domains
func (h *DomainHandler) Create(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	var req CreateDomainRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "name is required")
	}

	domain, err := h.domains.Create(c.Request().Context(), org.ID, req.Name)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, domain)
}

// List handles GET /api/domains
func (h *DomainHandler) List(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	domains, err := h.domains.List(c.Request().Context(), org.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, domains)
}

// Get handles GET /api/domains/:id
func (h *DomainHandler) Get(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid domain ID")
	}

	domain, err := h.domains.Get(c.Request().Context(), org.ID, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, domain)
}

// Verify handles POST /api/domains/:id/verify. It re-checks DNS and
// returns the refreshed record statuses.
func (h *DomainHandler) Verify(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid domain ID")
	}

	domain, err := h.domains.Verify(c.Request().Context(), org.ID, id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, domain)
}

// Delete handles DELETE /api/domains/:id
func (h *DomainHandler) Delete(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid domain ID")
	}

	if err := h.domains.Delete(c.Request().Context(), org.ID, id); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}
