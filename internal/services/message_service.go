package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/validator"
)

// SendMessageInput is a composed outbound message.
type SendMessageInput struct {
	To               []string
	Cc               []string
	Bcc              []string
	Subject          string
	Text             string
	HTML             string
	Labels           []string
	ReplyToMessageID *uint
}

// MessageService owns the outbound send path and the message query
// surface.
type MessageService struct {
	messages   repository.MessageRepository
	threads    repository.ThreadRepository
	inboxes    repository.InboxRepository
	correlator *ThreadCorrelator
	dispatcher mail.Dispatcher
	usage      UsageGuard
	events     EventSender
	logger     *slog.Logger
}

// NewMessageService creates a new MessageService instance
func NewMessageService(
	messages repository.MessageRepository,
	threads repository.ThreadRepository,
	inboxes repository.InboxRepository,
	correlator *ThreadCorrelator,
	dispatcher mail.Dispatcher,
	usage UsageGuard,
	events EventSender,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:   messages,
		threads:    threads,
		inboxes:    inboxes,
		correlator: correlator,
		dispatcher: dispatcher,
		usage:      usage,
		events:     events,
		logger:     logger,
	}
}

// Send validates, meters, persists and dispatches an outbound message.
// The quota verdict comes first: a rejected send creates no message
// row. The thread is settled before the message is persisted, so the
// message never lacks one. Dispatch failure is surfaced to the caller
// while the message row remains, status unset, in case the provider
// still delivers a late callback. A dispatched message is marked sent
// until a provider callback latches its delivery outcome.
func (s *MessageService) Send(ctx context.Context, org *models.Organization, inboxID uint, in SendMessageInput) (*models.Message, error) {
	inbox, err := s.inboxes.GetByOrganizationAndID(ctx, org.ID, inboxID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInboxNotFound
		}
		return nil, err
	}

	if err := validateRecipients(in.To); err != nil {
		return nil, err
	}

	allowed, err := s.usage.Allow(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to check usage quota: %w", err)
	}
	if !allowed {
		return nil, apperrors.ErrQuotaExceeded
	}

	var replyTo *models.Message
	if in.ReplyToMessageID != nil {
		replyTo, err = s.messages.GetByOrganizationAndID(ctx, org.ID, *in.ReplyToMessageID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.ErrMessageNotFound
			}
			return nil, err
		}
		if replyTo.InboxID != inboxID {
			return nil, apperrors.ErrMessageNotFound
		}
	}

	thread, err := s.correlator.ThreadForOutbound(ctx, org.ID, inboxID, replyTo)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		OrganizationID: org.ID,
		InboxID:        inboxID,
		ThreadID:       thread.ID,
		FromInboxID:    &inbox.ID,
		From:           inbox.Email,
		To:             in.To,
		Cc:             in.Cc,
		Bcc:            in.Bcc,
		Subject:        in.Subject,
		Text:           in.Text,
		HTML:           in.HTML,
		Labels:         in.Labels,
	}
	// Inbox-to-inbox send: record the counterparty for correlation
	if len(in.To) == 1 {
		if counterparty, err := s.inboxes.GetByEmail(ctx, in.To[0]); err == nil {
			message.ToInboxID = &counterparty.ID
		}
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := s.threads.AppendMessage(ctx, thread.ID, message.ID); err != nil {
		return nil, err
	}

	externalID, dispatchErr := s.dispatcher.Send(ctx, &mail.OutboundEmail{
		MessageID: message.ID,
		From:      inbox.Email,
		FromName:  inbox.Name,
		To:        in.To,
		Cc:        in.Cc,
		Bcc:       in.Bcc,
		Subject:   in.Subject,
		Text:      in.Text,
		HTML:      in.HTML,
	})
	if dispatchErr != nil {
		// The row stays for audit; status remains unset since the
		// provider may still deliver a late callback for
		// accepted-but-delayed sends.
		s.logger.Error("dispatch failed",
			slog.Uint64("message_id", uint64(message.ID)),
			slog.String("error", dispatchErr.Error()),
		)
		return message, dispatchErr
	}

	if err := s.messages.SetExternalMessageID(ctx, message.ID, externalID); err != nil {
		s.logger.Error("failed to record external message id",
			slog.Uint64("message_id", uint64(message.ID)),
			slog.String("external_message_id", externalID),
			slog.String("error", err.Error()),
		)
	} else {
		message.ExternalMessageID = &externalID
	}

	// The provider accepted the message. UpdateStatus keeps the latch
	// semantics, so a delivery callback that already landed wins.
	if applied, err := s.messages.UpdateStatus(ctx, message.ID, models.StatusSent); err != nil {
		s.logger.Error("failed to mark message sent",
			slog.Uint64("message_id", uint64(message.ID)),
			slog.String("error", err.Error()),
		)
	} else if applied {
		message.Status = models.StatusSent
	}

	s.events.SendEvent(ctx, org.ID, models.EventMessageSent, NewMessagePayload(message), EventOptions{
		InboxID:   &inboxID,
		MessageID: &message.ID,
	})
	return message, nil
}

// Get retrieves a message scoped to an organization.
func (s *MessageService) Get(ctx context.Context, orgID, messageID uint) (*models.Message, error) {
	message, err := s.messages.GetByOrganizationAndID(ctx, orgID, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

// Search lists an inbox's messages, filtered by a free-text query when
// one is supplied.
func (s *MessageService) Search(ctx context.Context, orgID, inboxID uint, query string) ([]models.Message, error) {
	if _, err := s.inboxes.GetByOrganizationAndID(ctx, orgID, inboxID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInboxNotFound
		}
		return nil, err
	}
	return s.messages.Search(ctx, inboxID, query)
}

// validateRecipients rejects a send with no or malformed recipients.
func validateRecipients(to []string) error {
	if len(to) == 0 {
		return fmt.Errorf("at least one recipient is required: %w", apperrors.ErrInvalidInput)
	}
	for _, addr := range to {
		if err := validator.ValidateEmail(addr); err != nil {
			return fmt.Errorf("malformed recipient address %q: %w", addr, apperrors.ErrInvalidInput)
		}
	}
	return nil
}
