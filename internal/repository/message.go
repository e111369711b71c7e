package repository

import (
	"context"
	"errors"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	ListByOwners(ctx context.Context, ownerIDs []uint, limit int) ([]models.Message, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Message, error)
	ListLikedBy(ctx context.Context, userID uint) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).Preload("User").First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByOwners returns the newest messages owned by any of the given users.
func (r *messageRepository) ListByOwners(ctx context.Context, ownerIDs []uint, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	if len(ownerIDs) == 0 {
		return messages, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ownerIDs).
		Order("created_at DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// ListLikedBy resolves the user's like rows to messages, newest first.
func (r *messageRepository) ListLikedBy(ctx context.Context, userID uint) ([]models.Message, error) {
	messages := []models.Message{}
	if err := r.db.WithContext(ctx).
		Where("id IN (?)",
			r.db.Model(&models.Like{}).Select("message_id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Preload("User").
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
