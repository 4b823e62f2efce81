// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultProfilePic is the blob reference assigned to new accounts. It is
// never deleted when a user replaces their picture.
const DefaultProfilePic = "default.png"

// User represents a registered identity.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null;size:30" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password   string    `gorm:"not null" json:"-"`
	FullName   string    `gorm:"not null" json:"fullName"`
	Bio        string    `gorm:"type:text" json:"bio"`
	ProfilePic string    `gorm:"default:'default.png'" json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Following and Followers are derived from the follows table on profile reads.
	Following []uint `gorm:"-" json:"following,omitempty"`
	Followers []uint `gorm:"-" json:"followers,omitempty"`
}

// Summary projects the display fields shown next to content.
func (u *User) Summary() *AuthorSummary {
	if u == nil {
		return nil
	}
	return &AuthorSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
	}
}

// AuthorSummary is the denormalized author view attached to posts, stories
// and comments in feed responses.
type AuthorSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}
