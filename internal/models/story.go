package models

import "time"

// StoryTTL is how long a story stays visible after it is created.
const StoryTTL = 24 * time.Hour

// Story is ephemeral image content. Stories are never edited.
type Story struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_stories_author_created,priority:1" json:"authorId"`
	Image     string         `gorm:"not null" json:"image"`
	Author    *AuthorSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time      `gorm:"index:idx_stories_author_created,priority:2" json:"createdAt"`
}

// ExpiresAt reports the instant at which the story stops being visible.
func (s *Story) ExpiresAt() time.Time {
	return s.CreatedAt.Add(StoryTTL)
}
