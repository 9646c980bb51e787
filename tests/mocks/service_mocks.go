package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/models"
)

// MockDispatcher implements mail.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, email *mail.OutboundEmail) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// RecordingBroadcaster implements services.Broadcaster and records the
// broadcasts it receives. Safe for concurrent use.
type RecordingBroadcaster struct {
	mu         sync.Mutex
	Broadcasts []BroadcastCall
}

type BroadcastCall struct {
	InboxID uint
	Message *models.Message
}

func (b *RecordingBroadcaster) BroadcastNewMessage(inboxID uint, message *models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Broadcasts = append(b.Broadcasts, BroadcastCall{InboxID: inboxID, Message: message})
}
