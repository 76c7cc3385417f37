// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// User is a registered account. Posts, comments and follow edges hang off it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254" json:"email,omitempty"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Password  string    `gorm:"not null" json:"-"`
	IsStaff   bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"date_joined"`
}

// FullName returns "first last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) String() string {
	return u.Username
}
