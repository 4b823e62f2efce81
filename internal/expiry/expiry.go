// Package expiry decides story visibility and reclaims expired stories.
package expiry

import (
	"time"

	"socialconnect/internal/models"
)

// IsVisible reports whether story is still inside its 24h window at now.
// Visibility is computed from CreatedAt alone and never depends on whether
// the reaper has run.
func IsVisible(story *models.Story, now time.Time) bool {
	return now.Sub(story.CreatedAt) < models.StoryTTL
}

// ActiveStories keeps the stories visible at now, preserving order.
func ActiveStories(stories []models.Story, now time.Time) []models.Story {
	out := make([]models.Story, 0, len(stories))
	for i := range stories {
		if IsVisible(&stories[i], now) {
			out = append(out, stories[i])
		}
	}
	return out
}

// VisibleSince is the earliest creation instant, exclusive, still visible at now.
func VisibleSince(now time.Time) time.Time {
	return now.Add(-models.StoryTTL)
}
