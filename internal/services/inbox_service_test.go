package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/tests/mocks"
)

type inboxServiceFixture struct {
	inboxes  *mocks.MockInboxRepository
	domains  *mocks.MockDomainRepository
	messages *mocks.MockMessageRepository
	events   *recordingEventSender
	service  *InboxService
}

func newInboxServiceFixture() *inboxServiceFixture {
	f := &inboxServiceFixture{
		inboxes:  new(mocks.MockInboxRepository),
		domains:  new(mocks.MockDomainRepository),
		messages: new(mocks.MockMessageRepository),
		events:   &recordingEventSender{},
	}
	generator := NewAddressGenerator(f.inboxes, "example.dev")
	f.service = NewInboxService(f.inboxes, f.domains, f.messages, generator, f.events, "example.dev", slog.New(slog.DiscardHandler))
	return f
}

func TestCreateInbox_GeneratedAddress(t *testing.T) {
	f := newInboxServiceFixture()

	f.inboxes.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	var created *models.Inbox
	f.inboxes.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Inbox)
			created.ID = 5
		}).
		Return(nil)

	inbox, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{Name: "Support"})
	require.NoError(t, err)

	assert.Equal(t, "Support", inbox.Name)
	assert.True(t, strings.HasPrefix(inbox.Email, "support-"))
	assert.True(t, strings.HasSuffix(inbox.Email, "@example.dev"))
	assert.Equal(t, []models.WebhookEvent{models.EventInboxCreated}, f.events.events)
}

func TestCreateInbox_EmptyNameRejected(t *testing.T) {
	f := newInboxServiceFixture()

	_, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.inboxes.AssertNotCalled(t, "Create")
}

func TestCreateInbox_ExplicitEmailOnDefaultDomain(t *testing.T) {
	f := newInboxServiceFixture()

	f.inboxes.On("Create", mock.Anything, mock.Anything).Return(nil)

	inbox, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:  "Support",
		Email: "Support@Example.dev",
	})
	require.NoError(t, err)
	assert.Equal(t, "support@example.dev", inbox.Email)
}

func TestCreateInbox_ExplicitEmailOnVerifiedDomain(t *testing.T) {
	f := newInboxServiceFixture()

	f.domains.On("GetVerifiedByOrganizationAndName", mock.Anything, uint(1), "corp.example.com").
		Return(&models.Domain{ID: 3, Name: "corp.example.com", Verified: true}, nil)
	f.inboxes.On("Create", mock.Anything, mock.Anything).Return(nil)

	inbox, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:  "Support",
		Email: "support@corp.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "support@corp.example.com", inbox.Email)
}

func TestCreateInbox_ExplicitEmailOnUnverifiedDomainRejected(t *testing.T) {
	f := newInboxServiceFixture()

	f.domains.On("GetVerifiedByOrganizationAndName", mock.Anything, uint(1), "corp.example.com").
		Return(nil, repository.ErrNotFound)

	_, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:  "Support",
		Email: "support@corp.example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDomainNotVerified)
}

func TestCreateInbox_MalformedExplicitEmail(t *testing.T) {
	f := newInboxServiceFixture()

	_, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:  "Support",
		Email: "not-an-address",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateInbox_RequestedDomainMustBeVerified(t *testing.T) {
	f := newInboxServiceFixture()

	f.domains.On("GetVerifiedByOrganizationAndName", mock.Anything, uint(1), "corp.example.com").
		Return(nil, repository.ErrNotFound)

	_, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:   "Support",
		Domain: "corp.example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDomainNotFound)
}

func TestCreateInbox_DuplicateAddressConflict(t *testing.T) {
	f := newInboxServiceFixture()

	f.inboxes.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEntry)

	_, err := f.service.Create(context.Background(), testOrg(), CreateInboxInput{
		Name:  "Support",
		Email: "support@example.dev",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAddressConflict)
	assert.Empty(t, f.events.events)
}

func TestGetInbox_NotFoundMapped(t *testing.T) {
	f := newInboxServiceFixture()
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(nil, repository.ErrNotFound)

	_, err := f.service.Get(context.Background(), 1, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInboxNotFound)
}

func TestResolve_MapsAddressToInbox(t *testing.T) {
	f := newInboxServiceFixture()
	f.inboxes.On("GetByEmail", mock.Anything, "support@example.dev").Return(testInbox(), nil)

	inbox, err := f.service.Resolve(context.Background(), "support@example.dev")
	require.NoError(t, err)
	assert.Equal(t, uint(5), inbox.ID)
}

func TestDeleteInbox_CascadesMessagesAndEmitsEvent(t *testing.T) {
	f := newInboxServiceFixture()

	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(testInbox(), nil)
	f.messages.On("DeleteByInbox", mock.Anything, uint(5)).Return(nil)
	f.inboxes.On("Delete", mock.Anything, uint(1), uint(5)).Return(nil)

	inbox, err := f.service.Delete(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), inbox.ID)
	assert.Equal(t, []models.WebhookEvent{models.EventInboxDeleted}, f.events.events)
}

func TestDeleteInbox_UnknownInbox(t *testing.T) {
	f := newInboxServiceFixture()
	f.inboxes.On("GetByOrganizationAndID", mock.Anything, uint(1), uint(5)).Return(nil, repository.ErrNotFound)

	_, err := f.service.Delete(context.Background(), 1, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInboxNotFound)
	f.messages.AssertNotCalled(t, "DeleteByInbox")
}
