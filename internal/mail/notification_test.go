package mail

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotification_OutboundEvent(t *testing.T) {
	raw := []byte(`{
		"eventType": "Delivery",
		"mail": {
			"messageId": "ext-abc",
			"source": "support@example.dev",
			"destination": ["dest@example.com"],
			"tags": {"message": ["42"]}
		}
	}`)

	n, err := ParseNotification(raw)
	require.NoError(t, err)

	assert.Equal(t, "Delivery", n.EventKind())
	id, ok := n.CorrelationID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestParseNotification_NotificationTypeFallback(t *testing.T) {
	raw := []byte(`{"notificationType": "Bounce", "mail": {"messageId": "x"}}`)

	n, err := ParseNotification(raw)
	require.NoError(t, err)
	assert.Equal(t, "Bounce", n.EventKind())
}

func TestParseNotification_EventTypeWinsOverNotificationType(t *testing.T) {
	raw := []byte(`{"eventType": "Delivery", "notificationType": "Bounce", "mail": {}}`)

	n, err := ParseNotification(raw)
	require.NoError(t, err)
	assert.Equal(t, "Delivery", n.EventKind())
}

func TestParseNotification_NoCorrelationTagMeansInbound(t *testing.T) {
	raw := []byte(`{
		"notificationType": "Received",
		"mail": {
			"source": "alice@example.com",
			"destination": ["support@example.dev"]
		}
	}`)

	n, err := ParseNotification(raw)
	require.NoError(t, err)

	_, ok := n.CorrelationID()
	assert.False(t, ok)
}

func TestParseNotification_EmptyCorrelationTagIgnored(t *testing.T) {
	raw := []byte(`{"mail": {"tags": {"message": [""]}}}`)

	n, err := ParseNotification(raw)
	require.NoError(t, err)

	_, ok := n.CorrelationID()
	assert.False(t, ok)
}

func TestParseNotification_Malformed(t *testing.T) {
	_, err := ParseNotification([]byte("not json"))
	require.Error(t, err)
}

func TestPushEnvelope_Unmarshal(t *testing.T) {
	raw := []byte(`{
		"Type": "Notification",
		"MessageId": "env-1",
		"Message": "{\"eventType\":\"Delivery\",\"mail\":{}}"
	}`)

	var envelope PushEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, EnvelopeTypeNotification, envelope.Type)

	inner, err := ParseNotification([]byte(envelope.Message))
	require.NoError(t, err)
	assert.Equal(t, "Delivery", inner.EventKind())
}
