package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/inboxkit/inboxkit/internal/api/middleware"
	"github.com/inboxkit/inboxkit/internal/api/response"
	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/services"
)

// ThreadHandler serves the read side of conversation threads. Threads
// are created and extended only by the message pipeline.
type ThreadHandler struct {
	threads repository.ThreadRepository
	inboxes *services.InboxService
}

// NewThreadHandler creates a new ThreadHandler
func NewThreadHandler(threads repository.ThreadRepository, inboxes *services.InboxService) *ThreadHandler {
	return &ThreadHandler{threads: threads, inboxes: inboxes}
}

// List handles GET /api/inboxes/:id/threads
func (h *ThreadHandler) List(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	inboxID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}

	// Inbox lookup doubles as the tenancy check
	if _, err := h.inboxes.Get(c.Request().Context(), org.ID, inboxID); err != nil {
		return response.Error(c, err)
	}

	threads, err := h.threads.ListByInbox(c.Request().Context(), inboxID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, threads)
}

// Get handles GET /api/inboxes/:id/threads/:thread_id and returns the
// thread with its messages in append order.
func (h *ThreadHandler) Get(c echo.Context) error {
	org := middleware.OrganizationFromContext(c)

	inboxID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid inbox ID")
	}
	threadID, err := parseIDParam(c, "thread_id")
	if err != nil {
		return response.BadRequest(c, "invalid thread ID")
	}

	thread, err := h.threads.GetByOrganizationInboxAndID(c.Request().Context(), org.ID, inboxID, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Error(c, apperrors.ErrThreadNotFound)
		}
		return response.Error(c, err)
	}

	messages, err := h.threads.Messages(c.Request().Context(), thread.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, models.ThreadWithMessages{
		Thread:   *thread,
		Messages: messages,
	})
}
