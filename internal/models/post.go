package models

import (
	"time"
)

// Post is image content owned by its author.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_posts_author_created,priority:1" json:"authorId"`
	Caption   string         `gorm:"type:text" json:"caption"`
	Image     string         `gorm:"not null" json:"image"`
	Location  string         `json:"location,omitempty"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments"`
	Author    *AuthorSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time      `gorm:"index:idx_posts_author_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
