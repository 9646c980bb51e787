package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// ThreadRepository defines the interface for thread data access.
// AppendMessage is the only mutator of a thread's message sequence.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	GetByOrganizationInboxAndID(ctx context.Context, orgID, inboxID, id uint) (*models.Thread, error)
	ListByInbox(ctx context.Context, inboxID uint) ([]models.Thread, error)
	AppendMessage(ctx context.Context, threadID, messageID uint) error
	MessageIDs(ctx context.Context, threadID uint) ([]uint, error)
	Messages(ctx context.Context, threadID uint) ([]models.Message, error)
}

// threadRepository implements ThreadRepository using GORM
type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new ThreadRepository instance
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// Create creates a new thread
func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	result := r.db.WithContext(ctx).Create(thread)
	if result.Error != nil {
		return fmt.Errorf("failed to create thread: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a thread by its ID
func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	result := r.db.WithContext(ctx).First(&thread, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread by ID: %w", result.Error)
	}
	return &thread, nil
}

// GetByOrganizationInboxAndID retrieves a thread scoped to an
// organization and inbox. A thread belonging to another tenant is
// reported as not found.
func (r *threadRepository) GetByOrganizationInboxAndID(ctx context.Context, orgID, inboxID, id uint) (*models.Thread, error) {
	var thread models.Thread
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND inbox_id = ? AND id = ?", orgID, inboxID, id).
		First(&thread)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", result.Error)
	}
	return &thread, nil
}

// ListByInbox retrieves all threads for an inbox
func (r *threadRepository) ListByInbox(ctx context.Context, inboxID uint) ([]models.Thread, error) {
	var threads []models.Thread
	result := r.db.WithContext(ctx).Where("inbox_id = ?", inboxID).Order("created_at DESC").Find(&threads)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list threads: %w", result.Error)
	}
	return threads, nil
}

// AppendMessage appends a message to the tail of a thread's sequence.
// The position is assigned inside a transaction so concurrent appends
// cannot produce duplicate positions.
func (r *threadRepository) AppendMessage(ctx context.Context, threadID, messageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.First(&thread, threadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load thread: %w", err)
		}

		var maxPosition int
		row := tx.Model(&models.ThreadMessage{}).
			Where("thread_id = ?", threadID).
			Select("COALESCE(MAX(position), 0)").
			Row()
		if err := row.Scan(&maxPosition); err != nil {
			return fmt.Errorf("failed to read thread tail: %w", err)
		}

		entry := models.ThreadMessage{
			ThreadID:  threadID,
			Position:  maxPosition + 1,
			MessageID: messageID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("message already in a thread: %w", ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to append message to thread: %w", err)
		}
		return nil
	})
}

// MessageIDs returns the ordered message ids of a thread
func (r *threadRepository) MessageIDs(ctx context.Context, threadID uint) ([]uint, error) {
	var ids []uint
	result := r.db.WithContext(ctx).
		Model(&models.ThreadMessage{}).
		Where("thread_id = ?", threadID).
		Order("position ASC").
		Pluck("message_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list thread message ids: %w", result.Error)
	}
	return ids, nil
}

// Messages returns the thread's messages in insertion order
func (r *threadRepository) Messages(ctx context.Context, threadID uint) ([]models.Message, error) {
	var messages []models.Message
	result := r.db.WithContext(ctx).
		Joins("JOIN thread_messages tm ON tm.message_id = messages.id").
		Where("tm.thread_id = ?", threadID).
		Order("tm.position ASC").
		Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list thread messages: %w", result.Error)
	}
	return messages, nil
}
