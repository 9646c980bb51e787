package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/tests/mocks"
)

// recordingEventSender captures fan-out calls without delivering.
type recordingEventSender struct {
	events []models.WebhookEvent
}

func (r *recordingEventSender) SendEvent(ctx context.Context, orgID uint, event models.WebhookEvent, payload models.TaggedPayload, opts EventOptions) {
	r.events = append(r.events, event)
}

// allowAllGuard approves every send.
type allowAllGuard struct{}

func (allowAllGuard) Allow(ctx context.Context, org *models.Organization) (bool, error) {
	return true, nil
}

// denyAllGuard rejects every send.
type denyAllGuard struct{}

func (denyAllGuard) Allow(ctx context.Context, org *models.Organization) (bool, error) {
	return false, nil
}

type messageServiceFixture struct {
	messages   *mocks.MockMessageRepository
	threads    *mocks.MockThreadRepository
	inboxes    *mocks.MockInboxRepository
	dispatcher *mocks.MockDispatcher
	events     *recordingEventSender
	service    *MessageService
}

func newMessageServiceFixture(usage UsageGuard) *messageServiceFixture {
	f := &messageServiceFixture{
		messages:   new(mocks.MockMessageRepository),
		threads:    new(mocks.MockThreadRepository),
		inboxes:    new(mocks.MockInboxRepository),
		dispatcher: new(mocks.MockDispatcher),
		events:     &recordingEventSender{},
	}
	logger := slog.New(slog.DiscardHandler)
	correlator := NewThreadCorrelator(f.messages, f.threads, logger)
	f.service = NewMessageService(f.messages, f.threads, f.inboxes, correlator, f.dispatcher, usage, f.events, logger)
	return f
}

func testOrg() *models.Organization {
	return &models.Organization{ID: 1, Name: "acme"}
}

func testInbox() *models.Inbox {
	return &models.Inbox{ID: 5, OrganizationID: 1, Name: "support", Email: "support-abc123@example.dev"}
}

func TestSend_HappyPath(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.inboxes.On("GetByEmail", mock.Anything, "dest@example.com").Return(nil, repository.ErrNotFound)
	f.threads.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Thread).ID = 42 }).
		Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).ID = 9 }).
		Return(nil)
	f.threads.On("AppendMessage", mock.Anything, uint(42), uint(9)).Return(nil)
	f.dispatcher.On("Send", mock.Anything, mock.Anything).Return("ext-123", nil)
	f.messages.On("SetExternalMessageID", mock.Anything, uint(9), "ext-123").Return(nil)
	f.messages.On("UpdateStatus", mock.Anything, uint(9), models.StatusSent).Return(true, nil)

	message, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To:      []string{"dest@example.com"},
		Subject: "hello",
		Text:    "body",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(42), message.ThreadID)
	assert.Equal(t, "support-abc123@example.dev", message.From)
	assert.Equal(t, models.StatusSent, message.Status)
	require.NotNil(t, message.ExternalMessageID)
	assert.Equal(t, "ext-123", *message.ExternalMessageID)
	assert.Equal(t, []models.WebhookEvent{models.EventMessageSent}, f.events.events)
}

func TestSend_EarlyCallbackWinsStatusRace(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.inboxes.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.threads.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Thread).ID = 42 }).
		Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).ID = 9 }).
		Return(nil)
	f.threads.On("AppendMessage", mock.Anything, uint(42), uint(9)).Return(nil)
	f.dispatcher.On("Send", mock.Anything, mock.Anything).Return("ext-123", nil)
	f.messages.On("SetExternalMessageID", mock.Anything, uint(9), "ext-123").Return(nil)
	// A delivery callback latched the row between dispatch and the
	// sent mark, so the update reports not applied.
	f.messages.On("UpdateStatus", mock.Anything, uint(9), models.StatusSent).Return(false, nil)

	message, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"dest@example.com"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, models.StatusSent, message.Status)
}

func TestSend_QuotaExceeded(t *testing.T) {
	f := newMessageServiceFixture(denyAllGuard{})

	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)

	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"dest@example.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	// No row is created for a metered-out send.
	f.messages.AssertNotCalled(t, "Create")
	f.threads.AssertNotCalled(t, "Create")
}

func TestSend_NoRecipients(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)

	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSend_MalformedRecipient(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)

	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"not-an-address"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSend_UnknownInbox(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(nil, repository.ErrNotFound)

	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"dest@example.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInboxNotFound)
}

func TestSend_ReplyJoinsThread(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	replyTo := &models.Message{ID: 2, OrganizationID: 1, InboxID: 5, ThreadID: 42}
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.inboxes.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.messages.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(2)).Return(replyTo, nil)
	f.threads.On("GetByID", mock.Anything, uint(42)).Return(&models.Thread{ID: 42}, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).ID = 9 }).
		Return(nil)
	f.threads.On("AppendMessage", mock.Anything, uint(42), uint(9)).Return(nil)
	f.dispatcher.On("Send", mock.Anything, mock.Anything).Return("ext-123", nil)
	f.messages.On("SetExternalMessageID", mock.Anything, uint(9), "ext-123").Return(nil)
	f.messages.On("UpdateStatus", mock.Anything, uint(9), models.StatusSent).Return(true, nil)

	replyID := uint(2)
	message, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To:               []string{"dest@example.com"},
		ReplyToMessageID: &replyID,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), message.ThreadID)
	f.threads.AssertNotCalled(t, "Create")
}

func TestSend_ReplyToForeignInboxRejected(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	otherInbox := &models.Message{ID: 2, OrganizationID: 1, InboxID: 8, ThreadID: 42}
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.messages.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(2)).Return(otherInbox, nil)

	replyID := uint(2)
	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To:               []string{"dest@example.com"},
		ReplyToMessageID: &replyID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestSend_DispatchFailureKeepsRow(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.inboxes.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.threads.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Thread).ID = 42 }).
		Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).ID = 9 }).
		Return(nil)
	f.threads.On("AppendMessage", mock.Anything, uint(42), uint(9)).Return(nil)
	dispatchErr := errors.New("provider unavailable")
	f.dispatcher.On("Send", mock.Anything, mock.Anything).Return("", dispatchErr)

	message, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"dest@example.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatchErr)

	// The row was persisted before dispatch and survives the failure.
	require.NotNil(t, message)
	assert.Equal(t, uint(9), message.ID)
	assert.Empty(t, message.Status)
	f.messages.AssertNotCalled(t, "SetExternalMessageID")
	f.messages.AssertNotCalled(t, "UpdateStatus")
	assert.Empty(t, f.events.events)
}

func TestSend_InboxToInboxRecordsCounterparty(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})

	counterparty := &models.Inbox{ID: 8, OrganizationID: 1, Email: "sales-xyz@example.dev"}
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.inboxes.On("GetByEmail", mock.Anything, "sales-xyz@example.dev").Return(counterparty, nil)
	f.threads.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Thread).ID = 42 }).
		Return(nil)

	var created *models.Message
	f.messages.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Message)
			created.ID = 9
		}).
		Return(nil)
	f.threads.On("AppendMessage", mock.Anything, uint(42), uint(9)).Return(nil)
	f.dispatcher.On("Send", mock.Anything, mock.Anything).Return("ext-123", nil)
	f.messages.On("SetExternalMessageID", mock.Anything, uint(9), "ext-123").Return(nil)
	f.messages.On("UpdateStatus", mock.Anything, uint(9), models.StatusSent).Return(true, nil)

	_, err := f.service.Send(context.Background(), testOrg(), 5, SendMessageInput{
		To: []string{"sales-xyz@example.dev"},
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	require.NotNil(t, created.ToInboxID)
	assert.Equal(t, uint(8), *created.ToInboxID)
}

func TestGet_NotFoundMapped(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.messages.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(9)).Return(nil, repository.ErrNotFound)

	_, err := f.service.Get(context.Background(), 1, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestSearch_ChecksInboxOwnership(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(nil, repository.ErrNotFound)

	_, err := f.service.Search(context.Background(), 1, 5, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInboxNotFound)
	f.messages.AssertNotCalled(t, "Search")
}

func TestSearch_ForwardsQuery(t *testing.T) {
	f := newMessageServiceFixture(allowAllGuard{})
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.messages.On("Search", mock.Anything, uint(5), "invoice").Return([]models.Message{{ID: 9}}, nil)

	results, err := f.service.Search(context.Background(), 1, 5, "invoice")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(9), results[0].ID)
}
