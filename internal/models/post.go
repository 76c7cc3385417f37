package models

import "time"

// PostPreviewLength is the number of characters String() keeps.
const PostPreviewLength = 15

// Post is a single authored entry, optionally grouped and illustrated.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
	Image    string    `gorm:"size:255" json:"image,omitempty"`
	Thumb    string    `gorm:"size:255" json:"thumbnail,omitempty"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
}

// String returns the first characters of the text.
func (p *Post) String() string {
	r := []rune(p.Text)
	if len(r) > PostPreviewLength {
		return string(r[:PostPreviewLength])
	}
	return p.Text
}

// IsAuthor reports whether userID wrote the post.
func (p *Post) IsAuthor(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
