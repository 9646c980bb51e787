package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
)

// ThreadCorrelator decides which thread an arriving message belongs
// to. Inbound correlation is best effort: an unresolvable reference
// degrades to a fresh thread, never to a failed pipeline.
type ThreadCorrelator struct {
	messages repository.MessageRepository
	threads  repository.ThreadRepository
	logger   *slog.Logger
}

// NewThreadCorrelator creates a new ThreadCorrelator instance
func NewThreadCorrelator(messages repository.MessageRepository, threads repository.ThreadRepository, logger *slog.Logger) *ThreadCorrelator {
	return &ThreadCorrelator{
		messages: messages,
		threads:  threads,
		logger:   logger,
	}
}

// ResolveInbound returns the thread an inbound message belongs to.
// References are tried newest-first (In-Reply-To sits at the tail of
// the parsed list); the first one that maps through externalMessageId
// to a message of the same organization and inbox wins. No hit means a
// new thread scoped to the inbox.
func (c *ThreadCorrelator) ResolveInbound(ctx context.Context, orgID, inboxID uint, references []string) (*models.Thread, error) {
	for i := len(references) - 1; i >= 0; i-- {
		ref := references[i]

		match := c.lookupReference(ctx, ref)
		if match == nil {
			continue
		}
		// Cross-tenant or cross-inbox references never correlate
		if match.OrganizationID != orgID || match.InboxID != inboxID {
			continue
		}

		thread, err := c.threads.GetByID(ctx, match.ThreadID)
		if err != nil {
			c.logger.Warn("referenced message has unresolvable thread",
				slog.Uint64("message_id", uint64(match.ID)),
				slog.Uint64("thread_id", uint64(match.ThreadID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		return thread, nil
	}

	thread := &models.Thread{
		OrganizationID: orgID,
		InboxID:        inboxID,
	}
	if err := c.threads.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread for inbound message: %w", err)
	}
	return thread, nil
}

// ThreadForOutbound returns the thread for an outbound message: the
// replied-to message's thread for a reply, or an eagerly created fresh
// thread for a new conversation. The thread exists before the message
// row is persisted, so a message never lacks a thread.
func (c *ThreadCorrelator) ThreadForOutbound(ctx context.Context, orgID, inboxID uint, replyTo *models.Message) (*models.Thread, error) {
	if replyTo != nil {
		thread, err := c.threads.GetByID(ctx, replyTo.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve replied-to thread: %w", err)
		}
		return thread, nil
	}

	thread := &models.Thread{
		OrganizationID: orgID,
		InboxID:        inboxID,
	}
	if err := c.threads.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread for outbound message: %w", err)
	}
	return thread, nil
}

// lookupReference resolves one reference id against the message store,
// trying the full id first and the local part as fallback. Store
// errors other than not-found are logged and treated as a miss.
func (c *ThreadCorrelator) lookupReference(ctx context.Context, ref string) *models.Message {
	for _, candidate := range referenceCandidates(ref) {
		match, err := c.messages.GetByExternalMessageID(ctx, candidate)
		if err == nil {
			return match
		}
		if !errors.Is(err, repository.ErrNotFound) {
			c.logger.Warn("reference lookup failed",
				slog.String("reference", candidate),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// referenceCandidates lists the id forms to try for one reference.
func referenceCandidates(ref string) []string {
	local := mail.LocalID(ref)
	if local == ref {
		return []string{ref}
	}
	return []string{ref, local}
}
