// Package mail holds the boundary with the mail-transmission provider:
// outbound dispatch, the push-notification payload shapes, and parsing
// of raw inbound MIME.
package mail

import (
	"encoding/json"
	"fmt"
)

// Provider event types that map to message status transitions.
const (
	EventTypeBounce    = "Bounce"
	EventTypeComplaint = "Complaint"
	EventTypeDelivery  = "Delivery"
	EventTypeSend      = "Send"
	EventTypeReject    = "Reject"
)

// correlationTag is the provider-side tag carrying the internal message
// id on outbound sends. Its presence on a callback marks the callback
// as an outbound status event.
const correlationTag = "message"

// MailHeader is one raw header on the notification's mail object.
type MailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CommonHeaders is the provider's pre-parsed view of the frequent headers.
type CommonHeaders struct {
	From      []string `json:"from,omitempty"`
	To        []string `json:"to,omitempty"`
	ReplyTo   []string `json:"replyTo,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
	Subject   string   `json:"subject,omitempty"`
}

// NotificationMail is the mail envelope attached to every notification.
type NotificationMail struct {
	MessageID     string              `json:"messageId"`
	Source        string              `json:"source"`
	Destination   []string            `json:"destination"`
	Timestamp     string              `json:"timestamp"`
	Headers       []MailHeader        `json:"headers,omitempty"`
	CommonHeaders CommonHeaders       `json:"commonHeaders,omitempty"`
	Tags          map[string][]string `json:"tags,omitempty"`
}

// Notification is the provider's push payload. Depending on the
// publishing path the event type arrives as eventType or
// notificationType; EventKind normalizes the two.
type Notification struct {
	EventType        string           `json:"eventType,omitempty"`
	NotificationType string           `json:"notificationType,omitempty"`
	Mail             NotificationMail `json:"mail"`
	// Content is the base64-encoded raw MIME of inbound mail.
	Content string `json:"content,omitempty"`
}

// EventKind returns the event type regardless of which field carried it.
func (n *Notification) EventKind() string {
	if n.EventType != "" {
		return n.EventType
	}
	return n.NotificationType
}

// CorrelationID returns the internal message id tagged onto an
// outbound send, and whether one is present. Callbacks without the tag
// are inbound delivery events.
func (n *Notification) CorrelationID() (string, bool) {
	values, ok := n.Mail.Tags[correlationTag]
	if !ok || len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}

// ParseNotification decodes a provider push payload.
func ParseNotification(raw []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("malformed provider notification: %w", err)
	}
	return &n, nil
}

// PushEnvelope is the outer wrapper the push channel delivers. Only
// Type "Notification" carries a payload the processor handles.
type PushEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId,omitempty"`
	TopicArn  string `json:"TopicArn,omitempty"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp,omitempty"`
}

// EnvelopeTypeNotification is the only envelope type that is processed.
const EnvelopeTypeNotification = "Notification"
