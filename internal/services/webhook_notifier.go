package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body,
// keyed with the webhook's secret. Only set when a secret is
// configured.
const SignatureHeader = "X-Webhook-Signature"

// maxStoredResponseBytes bounds how much of a subscriber's response
// body is kept on the audit record.
const maxStoredResponseBytes = 4096

// EventOptions carries the optional entity references recorded with an
// event.
type EventOptions struct {
	InboxID   *uint
	MessageID *uint
}

// EventSender fans a domain event out to an organization's subscribed
// webhooks. Delivery is fire-and-forget relative to the caller:
// failures are recorded on the audit trail, never propagated.
type EventSender interface {
	SendEvent(ctx context.Context, orgID uint, event models.WebhookEvent, payload models.TaggedPayload, opts EventOptions)
}

// NewMessagePayload builds the tagged payload for a message event.
func NewMessagePayload(message *models.Message) models.TaggedPayload {
	data, _ := json.Marshal(message)
	return models.TaggedPayload{Kind: models.PayloadKindMessage, Data: data}
}

// NewInboxPayload builds the tagged payload for an inbox event.
func NewInboxPayload(inbox *models.Inbox) models.TaggedPayload {
	data, _ := json.Marshal(inbox)
	return models.TaggedPayload{Kind: models.PayloadKindInbox, Data: data}
}

// NewTestPayload builds the tagged payload for a manual test delivery.
func NewTestPayload(fields map[string]string) models.TaggedPayload {
	data, _ := json.Marshal(fields)
	return models.TaggedPayload{Kind: models.PayloadKindTest, Data: data}
}

// eventEnvelope is the stable wire contract POSTed to subscribers.
type eventEnvelope struct {
	Event     models.WebhookEvent `json:"event"`
	InboxID   string              `json:"inboxId,omitempty"`
	MessageID string              `json:"messageId,omitempty"`
	Payload   json.RawMessage     `json:"payload"`
}

// WebhookNotifier implements EventSender with at-least-once, one-shot
// delivery: one synchronous POST per subscribed webhook, one immutable
// WebhookAttempt per POST, no retry and no backoff. Failed deliveries
// stay on the audit trail for operator replay.
type WebhookNotifier struct {
	webhooks repository.WebhookRepository
	attempts repository.WebhookAttemptRepository
	client   *http.Client
	logger   *slog.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier instance. The
// timeout bounds every delivery POST; a timed-out POST is recorded as
// a failed attempt.
func NewWebhookNotifier(
	webhooks repository.WebhookRepository,
	attempts repository.WebhookAttemptRepository,
	timeout time.Duration,
	logger *slog.Logger,
) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		webhooks: webhooks,
		attempts: attempts,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// SendEvent delivers the event to every subscribed webhook of the
// organization, de-duplicated by destination URL.
func (n *WebhookNotifier) SendEvent(ctx context.Context, orgID uint, event models.WebhookEvent, payload models.TaggedPayload, opts EventOptions) {
	hooks, err := n.webhooks.ListByOrganizationAndEvent(ctx, orgID, event)
	if err != nil {
		n.logger.Error("failed to look up webhooks for event",
			slog.Uint64("organization_id", uint64(orgID)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(hooks) == 0 {
		return
	}

	// Two registrations sharing a URL get one delivery, not two
	seenURLs := make(map[string]bool, len(hooks))

	for i := range hooks {
		hook := &hooks[i]
		if seenURLs[hook.URL] {
			continue
		}
		seenURLs[hook.URL] = true
		n.deliver(ctx, hook, event, payload, opts)
	}
}

// SendTest delivers a synthetic payload to one specific webhook,
// bypassing the subscription filter. Used by the manual test endpoint;
// the attempt lands on the audit trail like any real delivery.
func (n *WebhookNotifier) SendTest(ctx context.Context, hook *models.Webhook) {
	payload := NewTestPayload(map[string]string{
		"message": "test delivery",
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	})
	n.deliver(ctx, hook, models.EventMessageReceived, payload, EventOptions{})
}

// deliver POSTs the envelope to one webhook and records the attempt.
func (n *WebhookNotifier) deliver(ctx context.Context, hook *models.Webhook, event models.WebhookEvent, payload models.TaggedPayload, opts EventOptions) {
	envelope := eventEnvelope{
		Event:   event,
		Payload: payload.Data,
	}
	if opts.InboxID != nil {
		envelope.InboxID = strconv.FormatUint(uint64(*opts.InboxID), 10)
	}
	if opts.MessageID != nil {
		envelope.MessageID = strconv.FormatUint(uint64(*opts.MessageID), 10)
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		n.logger.Error("failed to encode webhook envelope",
			slog.Uint64("webhook_id", uint64(hook.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	attempt := &models.WebhookAttempt{
		OrganizationID: hook.OrganizationID,
		WebhookID:      hook.ID,
		InboxID:        opts.InboxID,
		MessageID:      opts.MessageID,
		Event:          event,
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
	}

	status, response, deliveryErr := n.post(ctx, hook, body)
	if deliveryErr != nil {
		attempt.Status = http.StatusInternalServerError
		attempt.Error = deliveryErr.Error()
	} else {
		attempt.Status = status
		attempt.Response = response
	}

	if err := n.attempts.Create(ctx, attempt); err != nil {
		n.logger.Error("failed to record webhook attempt",
			slog.Uint64("webhook_id", uint64(hook.ID)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
	}

	if deliveryErr != nil {
		n.logger.Warn("webhook delivery failed",
			slog.Uint64("webhook_id", uint64(hook.ID)),
			slog.String("event", string(event)),
			slog.String("error", deliveryErr.Error()),
		)
	}
}

// post performs the single delivery attempt.
func (n *WebhookNotifier) post(ctx context.Context, hook *models.Webhook, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(hook.Secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxStoredResponseBytes))
	return resp.StatusCode, string(responseBody), nil
}

// Sign computes the hex HMAC-SHA256 of the body under the secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
