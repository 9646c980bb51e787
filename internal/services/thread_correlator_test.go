package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/tests/mocks"
)

func newTestCorrelator(messages *mocks.MockMessageRepository, threads *mocks.MockThreadRepository) *ThreadCorrelator {
	return NewThreadCorrelator(messages, threads, slog.New(slog.DiscardHandler))
}

func TestResolveInbound_MatchesNewestReferenceFirst(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	newest := &models.Message{ID: 2, OrganizationID: 1, InboxID: 5, ThreadID: 42}
	messages.On("GetByExternalMessageID", mock.Anything, "newest-id").Return(newest, nil)
	threads.On("GetByID", mock.Anything, uint(42)).Return(&models.Thread{ID: 42}, nil)

	correlator := newTestCorrelator(messages, threads)
	thread, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"oldest-id", "newest-id"})
	require.NoError(t, err)
	assert.Equal(t, uint(42), thread.ID)

	// The oldest reference is never consulted once the newest matches.
	messages.AssertNotCalled(t, "GetByExternalMessageID", mock.Anything, "oldest-id")
	threads.AssertNotCalled(t, "Create")
}

func TestResolveInbound_NoMatchCreatesThread(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	messages.On("GetByExternalMessageID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	threads.On("Create", mock.Anything, mock.MatchedBy(func(th *models.Thread) bool {
		return th.OrganizationID == 1 && th.InboxID == 5
	})).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	thread, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"unknown-id"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), thread.OrganizationID)
	assert.Equal(t, uint(5), thread.InboxID)
}

func TestResolveInbound_EmptyReferencesCreatesThread(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	threads.On("Create", mock.Anything, mock.Anything).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ResolveInbound(context.Background(), 1, 5, nil)
	require.NoError(t, err)
	messages.AssertNotCalled(t, "GetByExternalMessageID")
}

func TestResolveInbound_CrossTenantReferenceIgnored(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	foreign := &models.Message{ID: 2, OrganizationID: 99, InboxID: 5, ThreadID: 42}
	messages.On("GetByExternalMessageID", mock.Anything, "foreign-id").Return(foreign, nil)
	threads.On("Create", mock.Anything, mock.Anything).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"foreign-id"})
	require.NoError(t, err)

	threads.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	threads.AssertNotCalled(t, "GetByID")
}

func TestResolveInbound_CrossInboxReferenceIgnored(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	other := &models.Message{ID: 2, OrganizationID: 1, InboxID: 8, ThreadID: 42}
	messages.On("GetByExternalMessageID", mock.Anything, "other-inbox-id").Return(other, nil)
	threads.On("Create", mock.Anything, mock.Anything).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"other-inbox-id"})
	require.NoError(t, err)
	threads.AssertNotCalled(t, "GetByID")
}

func TestResolveInbound_FullIDMissFallsBackToLocalID(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	match := &models.Message{ID: 2, OrganizationID: 1, InboxID: 5, ThreadID: 42}
	messages.On("GetByExternalMessageID", mock.Anything, "abc@mail.example.com").Return(nil, repository.ErrNotFound)
	messages.On("GetByExternalMessageID", mock.Anything, "abc").Return(match, nil)
	threads.On("GetByID", mock.Anything, uint(42)).Return(&models.Thread{ID: 42}, nil)

	correlator := newTestCorrelator(messages, threads)
	thread, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"abc@mail.example.com"})
	require.NoError(t, err)
	assert.Equal(t, uint(42), thread.ID)
}

func TestResolveInbound_LookupErrorDegradesToFreshThread(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	messages.On("GetByExternalMessageID", mock.Anything, mock.Anything).Return(nil, errors.New("store down"))
	threads.On("Create", mock.Anything, mock.Anything).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ResolveInbound(context.Background(), 1, 5, []string{"some-id"})
	require.NoError(t, err)
	threads.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestThreadForOutbound_ReplyJoinsExistingThread(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	threads.On("GetByID", mock.Anything, uint(42)).Return(&models.Thread{ID: 42}, nil)

	correlator := newTestCorrelator(messages, threads)
	thread, err := correlator.ThreadForOutbound(context.Background(), 1, 5, &models.Message{ID: 2, ThreadID: 42})
	require.NoError(t, err)
	assert.Equal(t, uint(42), thread.ID)
	threads.AssertNotCalled(t, "Create")
}

func TestThreadForOutbound_NewConversationCreatesThread(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	threads.On("Create", mock.Anything, mock.MatchedBy(func(th *models.Thread) bool {
		return th.OrganizationID == 1 && th.InboxID == 5
	})).Return(nil)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ThreadForOutbound(context.Background(), 1, 5, nil)
	require.NoError(t, err)
}

func TestThreadForOutbound_MissingReplyThreadFails(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	threads := new(mocks.MockThreadRepository)

	threads.On("GetByID", mock.Anything, uint(42)).Return(nil, repository.ErrNotFound)

	correlator := newTestCorrelator(messages, threads)
	_, err := correlator.ThreadForOutbound(context.Background(), 1, 5, &models.Message{ID: 2, ThreadID: 42})
	require.Error(t, err)
}
