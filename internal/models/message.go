package models

import (
	"time"
)

// MaxMessageLength bounds the text of a single message.
const MaxMessageLength = 140

// Message represents a short text post owned by a user.
// The owner is immutable after creation.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
