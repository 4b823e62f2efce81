package models

import (
	"time"
)

// Follow is one directed edge of the follow graph. The same row serves the
// forward index (follower -> following) and the reverse index
// (following -> follower), so inserting or deleting it moves both at once.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_edge,priority:1;check:chk_follows_not_self,follower_id <> following_id" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_edge,priority:2;index:idx_follows_reverse" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
