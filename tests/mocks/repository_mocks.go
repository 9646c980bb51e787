package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/inboxkit/inboxkit/internal/models"
)

// MockInboxRepository implements repository.InboxRepository
type MockInboxRepository struct {
	mock.Mock
}

func (m *MockInboxRepository) Create(ctx context.Context, inbox *models.Inbox) error {
	args := m.Called(ctx, inbox)
	return args.Error(0)
}

func (m *MockInboxRepository) GetByID(ctx context.Context, id uint) (*models.Inbox, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inbox), args.Error(1)
}

func (m *MockInboxRepository) GetByEmail(ctx context.Context, email string) (*models.Inbox, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inbox), args.Error(1)
}

func (m *MockInboxRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Inbox, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inbox), args.Error(1)
}

func (m *MockInboxRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Inbox, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inbox), args.Error(1)
}

func (m *MockInboxRepository) Delete(ctx context.Context, orgID, id uint) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Message, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByExternalMessageID(ctx context.Context, externalID string) (*models.Message, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) SetExternalMessageID(ctx context.Context, id uint, externalID string) error {
	args := m.Called(ctx, id, externalID)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateStatus(ctx context.Context, id uint, status models.MessageStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageRepository) Search(ctx context.Context, inboxID uint, query string) ([]models.Message, error) {
	args := m.Called(ctx, inboxID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepository) DeleteByInbox(ctx context.Context, inboxID uint) error {
	args := m.Called(ctx, inboxID)
	return args.Error(0)
}

func (m *MockMessageRepository) CountByOrganizationBetween(ctx context.Context, orgID uint, start, end time.Time) (int64, error) {
	args := m.Called(ctx, orgID, start, end)
	return args.Get(0).(int64), args.Error(1)
}

// MockThreadRepository implements repository.ThreadRepository
type MockThreadRepository struct {
	mock.Mock
}

func (m *MockThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *MockThreadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockThreadRepository) GetByOrganizationInboxAndID(ctx context.Context, orgID, inboxID, id uint) (*models.Thread, error) {
	args := m.Called(ctx, orgID, inboxID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockThreadRepository) ListByInbox(ctx context.Context, inboxID uint) ([]models.Thread, error) {
	args := m.Called(ctx, inboxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Thread), args.Error(1)
}

func (m *MockThreadRepository) AppendMessage(ctx context.Context, threadID, messageID uint) error {
	args := m.Called(ctx, threadID, messageID)
	return args.Error(0)
}

func (m *MockThreadRepository) MessageIDs(ctx context.Context, threadID uint) ([]uint, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockThreadRepository) Messages(ctx context.Context, threadID uint) ([]models.Message, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MockDomainRepository implements repository.DomainRepository
type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	args := m.Called(ctx, domain)
	return args.Error(0)
}

func (m *MockDomainRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Domain, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetVerifiedByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Domain, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Domain), args.Error(1)
}

func (m *MockDomainRepository) Update(ctx context.Context, domain *models.Domain) error {
	args := m.Called(ctx, domain)
	return args.Error(0)
}

func (m *MockDomainRepository) Delete(ctx context.Context, orgID, id uint) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

// MockWebhookRepository implements repository.WebhookRepository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

func (m *MockWebhookRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Webhook, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Webhook, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) ListByOrganizationAndEvent(ctx context.Context, orgID uint, event models.WebhookEvent) ([]models.Webhook, error) {
	args := m.Called(ctx, orgID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) Delete(ctx context.Context, orgID, id uint) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

// MockWebhookAttemptRepository implements repository.WebhookAttemptRepository
type MockWebhookAttemptRepository struct {
	mock.Mock
}

func (m *MockWebhookAttemptRepository) Create(ctx context.Context, attempt *models.WebhookAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockWebhookAttemptRepository) ListByWebhook(ctx context.Context, orgID, webhookID uint) ([]models.WebhookAttempt, error) {
	args := m.Called(ctx, orgID, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookAttempt), args.Error(1)
}

func (m *MockWebhookAttemptRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.WebhookAttempt, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookAttempt), args.Error(1)
}
