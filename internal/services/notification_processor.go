package services

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strconv"

	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/storage"
	"github.com/inboxkit/inboxkit/internal/validator"
)

// maxSubjectLength caps stored subjects at the RFC 5322 line limit.
const maxSubjectLength = 998

// statusTransition pairs the stored status with the event emitted for
// one provider event type.
type statusTransition struct {
	status models.MessageStatus
	event  models.WebhookEvent
}

// outboundTransitions is the fixed provider-event to status mapping.
// Event types outside this table are ignored: no status change, no
// webhook.
var outboundTransitions = map[string]statusTransition{
	mail.EventTypeReject:    {models.StatusRejected, models.EventMessageRejected},
	mail.EventTypeBounce:    {models.StatusBounced, models.EventMessageBounced},
	mail.EventTypeComplaint: {models.StatusComplained, models.EventMessageComplained},
	mail.EventTypeDelivery:  {models.StatusDelivered, models.EventMessageDelivered},
}

// Broadcaster pushes inbound messages to live feed subscribers.
type Broadcaster interface {
	BroadcastNewMessage(inboxID uint, message *models.Message)
}

// NotificationProcessor is the single entry point for the provider's
// push notifications. The transport is fire-and-forget: there is no
// caller to propagate to, so every failure is terminal here: logged
// and dropped.
type NotificationProcessor struct {
	inboxes    repository.InboxRepository
	messages   repository.MessageRepository
	threads    repository.ThreadRepository
	correlator *ThreadCorrelator
	events     EventSender
	feed       Broadcaster
	logger     *slog.Logger
}

// NewNotificationProcessor creates a new NotificationProcessor
// instance. The broadcaster may be nil when no live feed is running.
func NewNotificationProcessor(
	inboxes repository.InboxRepository,
	messages repository.MessageRepository,
	threads repository.ThreadRepository,
	correlator *ThreadCorrelator,
	events EventSender,
	feed Broadcaster,
	logger *slog.Logger,
) *NotificationProcessor {
	return &NotificationProcessor{
		inboxes:    inboxes,
		messages:   messages,
		threads:    threads,
		correlator: correlator,
		events:     events,
		feed:       feed,
		logger:     logger,
	}
}

// HandleNotification routes one provider callback. A callback carrying
// the internal correlation tag is an outbound status event; one with a
// populated mail envelope and no tag is inbound mail.
func (p *NotificationProcessor) HandleNotification(ctx context.Context, raw []byte) {
	notification, err := mail.ParseNotification(raw)
	if err != nil {
		p.logger.Warn("dropping malformed provider notification", slog.String("error", err.Error()))
		return
	}

	if correlationID, ok := notification.CorrelationID(); ok {
		p.handleOutbound(ctx, notification, correlationID)
		return
	}
	p.handleInbound(ctx, notification)
}

// IngestRaw feeds locally received SMTP mail through the same inbound
// pipeline as provider callbacks. One synthetic notification per
// recipient; failures are logged and dropped like any other inbound.
func (p *NotificationProcessor) IngestRaw(ctx context.Context, from string, recipients []string, raw []byte) {
	content := base64.StdEncoding.EncodeToString(raw)
	for _, recipient := range recipients {
		p.handleInbound(ctx, &mail.Notification{
			Mail: mail.NotificationMail{
				Source:      from,
				Destination: []string{recipient},
			},
			Content: content,
		})
	}
}

// handleOutbound applies one delivery status transition.
func (p *NotificationProcessor) handleOutbound(ctx context.Context, n *mail.Notification, correlationID string) {
	messageID, err := strconv.ParseUint(correlationID, 10, 64)
	if err != nil {
		p.logger.Warn("dropping callback with malformed correlation tag",
			slog.String("tag", correlationID),
		)
		return
	}

	message, err := p.messages.GetByID(ctx, uint(messageID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn("callback references unknown message",
				slog.Uint64("message_id", messageID),
			)
		} else {
			p.logger.Error("failed to load message for callback",
				slog.Uint64("message_id", messageID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	transition, ok := outboundTransitions[n.EventKind()]
	if !ok {
		p.logger.Debug("ignoring provider event type",
			slog.String("event_type", n.EventKind()),
			slog.Uint64("message_id", messageID),
		)
		return
	}

	applied, err := p.messages.UpdateStatus(ctx, message.ID, transition.status)
	if err != nil {
		p.logger.Error("failed to update message status",
			slog.Uint64("message_id", messageID),
			slog.String("status", string(transition.status)),
			slog.String("error", err.Error()),
		)
		return
	}
	if !applied {
		// First terminal observation is authoritative; a late
		// conflicting callback neither overwrites nor re-emits.
		p.logger.Info("status already latched, callback ignored",
			slog.Uint64("message_id", messageID),
			slog.String("stored_status", string(message.Status)),
			slog.String("callback_status", string(transition.status)),
		)
		return
	}

	message.Status = transition.status
	p.events.SendEvent(ctx, message.OrganizationID, transition.event, NewMessagePayload(message), EventOptions{
		InboxID:   &message.InboxID,
		MessageID: &message.ID,
	})
}

// handleInbound persists newly arrived mail: resolve the destination
// inbox, decode the raw MIME, correlate the thread, store the message
// and fan out message.received.
func (p *NotificationProcessor) handleInbound(ctx context.Context, n *mail.Notification) {
	if len(n.Mail.Destination) == 0 || n.Mail.Destination[0] == "" {
		p.logger.Warn("dropping inbound callback without destination")
		return
	}
	destination := n.Mail.Destination[0]

	inbox, err := p.inboxes.GetByEmail(ctx, destination)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn("inbound mail for unknown address dropped",
				slog.String("destination", destination),
			)
		} else {
			p.logger.Error("failed to resolve destination inbox",
				slog.String("destination", destination),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	parsed := p.parseContent(n)

	thread, err := p.correlator.ResolveInbound(ctx, inbox.OrganizationID, inbox.ID, parsed.References)
	if err != nil {
		p.logger.Error("failed to resolve thread for inbound message",
			slog.Uint64("inbox_id", uint64(inbox.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	visibleText := mail.VisibleReplyText(parsed.Text)
	html := parsed.HTML
	if html == "" {
		html = visibleText
	}
	subject := parsed.Subject
	if subject == "" {
		subject = n.Mail.CommonHeaders.Subject
	}
	subject = validator.SanitizeString(subject, maxSubjectLength)

	// The MIME From header names the author; the envelope source can
	// be a forwarding or bounce address.
	from := parsed.SenderEmail
	if from == "" {
		from = n.Mail.Source
	}

	externalID := n.Mail.MessageID
	message := &models.Message{
		OrganizationID: inbox.OrganizationID,
		InboxID:        inbox.ID,
		ThreadID:       thread.ID,
		ToInboxID:      &inbox.ID,
		From:           from,
		To:             n.Mail.Destination,
		Subject:        subject,
		Text:           visibleText,
		HTML:           html,
		Status:         models.StatusReceived,
	}
	if externalID != "" {
		message.ExternalMessageID = &externalID
	}
	// Mail between managed inboxes: record the sender side too
	if sender, err := p.inboxes.GetByEmail(ctx, from); err == nil {
		message.FromInboxID = &sender.ID
	}
	for _, att := range parsed.Attachments {
		if err := storage.ValidateAttachment(att.Filename, att.Size); err != nil {
			p.logger.Warn("dropping inbound attachment",
				slog.String("filename", att.Filename),
				slog.String("error", err.Error()),
			)
			continue
		}
		message.Attachments = append(message.Attachments, models.Attachment{
			Filename:    validator.SanitizeFilename(att.Filename),
			ContentType: att.ContentType,
			Size:        att.Size,
			Content:     att.Content,
		})
	}

	if err := p.messages.Create(ctx, message); err != nil {
		p.logger.Error("failed to persist inbound message",
			slog.Uint64("inbox_id", uint64(inbox.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := p.threads.AppendMessage(ctx, thread.ID, message.ID); err != nil {
		p.logger.Error("failed to append inbound message to thread",
			slog.Uint64("thread_id", uint64(thread.ID)),
			slog.Uint64("message_id", uint64(message.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	p.events.SendEvent(ctx, inbox.OrganizationID, models.EventMessageReceived, NewMessagePayload(message), EventOptions{
		InboxID:   &inbox.ID,
		MessageID: &message.ID,
	})
	if p.feed != nil {
		p.feed.BroadcastNewMessage(inbox.ID, message)
	}
}

// parseContent decodes the base64 raw MIME carried on an inbound
// callback. Decode or parse failures degrade to the envelope's common
// headers so the message is still captured.
func (p *NotificationProcessor) parseContent(n *mail.Notification) *mail.ParsedEmail {
	fallback := &mail.ParsedEmail{
		Subject: n.Mail.CommonHeaders.Subject,
	}
	if n.Content == "" {
		return fallback
	}

	raw, err := base64.StdEncoding.DecodeString(n.Content)
	if err != nil {
		p.logger.Warn("inbound content is not valid base64", slog.String("error", err.Error()))
		return fallback
	}

	parsed, err := mail.ParseRawEmailBytes(raw)
	if err != nil {
		p.logger.Warn("failed to parse inbound MIME", slog.String("error", err.Error()))
		return fallback
	}
	return parsed
}
