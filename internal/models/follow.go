package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSelfFollow is returned when a user tries to subscribe to themself.
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow is a directed subscription from UserID to AuthorID.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate rejects self-subscriptions.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.UserID == f.AuthorID {
		return ErrSelfFollow
	}
	return nil
}
