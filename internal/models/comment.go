package models

import "time"

// Comment is a piece of text left on a post by any identity.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"postId"`
	UserID    uint           `gorm:"not null" json:"authorId"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Author    *AuthorSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
