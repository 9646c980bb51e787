package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// terminalStatuses are the delivery outcomes a message can never leave.
var terminalStatuses = []models.MessageStatus{
	models.StatusDelivered,
	models.StatusBounced,
	models.StatusComplained,
	models.StatusRejected,
}

// MessageRepository defines the interface for message data access.
// After creation only Status and ExternalMessageID are mutable.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Message, error)
	GetByExternalMessageID(ctx context.Context, externalID string) (*models.Message, error)
	SetExternalMessageID(ctx context.Context, id uint, externalID string) error
	UpdateStatus(ctx context.Context, id uint, status models.MessageStatus) (bool, error)
	Search(ctx context.Context, inboxID uint, query string) ([]models.Message, error)
	DeleteByInbox(ctx context.Context, inboxID uint) error
	CountByOrganizationBetween(ctx context.Context, orgID uint, start, end time.Time) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message. The referenced inbox and thread must
// exist and belong to the message's organization (and, for the thread,
// to the message's inbox). Optional list fields default to empty
// collections rather than staying absent.
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.To == nil {
		message.To = []string{}
	}
	if message.Cc == nil {
		message.Cc = []string{}
	}
	if message.Bcc == nil {
		message.Bcc = []string{}
	}
	if message.Labels == nil {
		message.Labels = []string{}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inbox models.Inbox
		if err := tx.Where("organization_id = ? AND id = ?", message.OrganizationID, message.InboxID).
			First(&inbox).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("inbox does not belong to organization: %w", ErrInvalidInput)
			}
			return fmt.Errorf("failed to validate inbox reference: %w", err)
		}

		var thread models.Thread
		if err := tx.Where("organization_id = ? AND inbox_id = ? AND id = ?",
			message.OrganizationID, message.InboxID, message.ThreadID).
			First(&thread).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("thread does not belong to inbox: %w", ErrInvalidInput)
			}
			return fmt.Errorf("failed to validate thread reference: %w", err)
		}

		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a message by its ID with preloaded attachments
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Preload("Attachments").First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// GetByOrganizationAndID retrieves a message scoped to an organization.
// A message under another organization is reported as not found.
func (r *messageRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Preload("Attachments").
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", result.Error)
	}
	return &message, nil
}

// GetByExternalMessageID retrieves a message by the provider's
// identifier. Point lookup on an indexed column: this is the hot path
// for reply correlation and delivery callbacks.
func (r *messageRepository) GetByExternalMessageID(ctx context.Context, externalID string) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Where("external_message_id = ?", externalID).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by external id: %w", result.Error)
	}
	return &message, nil
}

// SetExternalMessageID records the provider identifier assigned on dispatch
func (r *messageRepository) SetExternalMessageID(ctx context.Context, id uint, externalID string) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("external_message_id", externalID)
	if result.Error != nil {
		return fmt.Errorf("failed to set external message id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus applies a status transition with the terminal latch: a
// message that already holds a terminal status is left untouched. The
// returned bool reports whether the update was applied. The condition
// lives in the WHERE clause so concurrent callbacks race safely at the
// store, not in application code.
func (r *messageRepository) UpdateStatus(ctx context.Context, id uint, status models.MessageStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND (status IS NULL OR status NOT IN ?)", id, terminalStatuses).
		Update("status", status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update message status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Search retrieves messages for an inbox ordered by creation time.
// When a query is supplied it matches case-insensitively as a
// substring across subject, bodies and participant fields; otherwise
// the full listing is returned.
func (r *messageRepository) Search(ctx context.Context, inboxID uint, query string) ([]models.Message, error) {
	var messages []models.Message
	db := r.db.WithContext(ctx).Where("inbox_id = ?", inboxID)
	if query != "" {
		pattern := "%" + query + "%"
		db = db.Where(
			`LOWER(subject) LIKE LOWER(?) OR LOWER(text) LIKE LOWER(?) OR LOWER(html) LIKE LOWER(?) OR LOWER("from") LIKE LOWER(?) OR LOWER("to") LIKE LOWER(?)`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	result := db.Order("created_at ASC").Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search messages: %w", result.Error)
	}
	return messages, nil
}

// DeleteByInbox deletes all messages of an inbox. Used on inbox
// deletion, before the inbox row itself goes away.
func (r *messageRepository) DeleteByInbox(ctx context.Context, inboxID uint) error {
	result := r.db.WithContext(ctx).Where("inbox_id = ?", inboxID).Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete messages for inbox: %w", result.Error)
	}
	return nil
}

// CountByOrganizationBetween counts an organization's messages created
// in [start, end). Used by the usage guard on the send path.
func (r *messageRepository) CountByOrganizationBetween(ctx context.Context, orgID uint, start, end time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, start, end).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count messages: %w", result.Error)
	}
	return count, nil
}
