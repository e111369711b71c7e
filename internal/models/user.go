// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Default profile assets applied when the corresponding form field is left blank.
const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents an account in the Warbler application.
// Password holds the bcrypt hash, never the plaintext. It is excluded from
// JSON so cached copies never carry the hash; credential checks always go
// through an uncached username lookup.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:30;unique;not null" json:"username"`
	Email          string    `gorm:"size:50;unique;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	Bio            string    `gorm:"size:1500" json:"bio"`
	Location       string    `gorm:"size:50" json:"location"`
	ImageURL       string    `gorm:"size:255" json:"image_url"`
	HeaderImageURL string    `gorm:"size:255" json:"header_image_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:UserID" json:"messages,omitempty"`
}
