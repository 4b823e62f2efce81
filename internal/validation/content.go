package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCaptionLength  = 2200
	MaxLocationLength = 255
	MaxBioLength      = 150
	MaxCommentLength  = 1000
	MaxQueryLength    = 100
)

func maxRunes(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%s must not exceed %d characters", field, limit)
	}
	return nil
}

func ValidateCaption(caption string) error {
	return maxRunes("caption", caption, MaxCaptionLength)
}

func ValidateLocation(location string) error {
	return maxRunes("location", location, MaxLocationLength)
}

func ValidateBio(bio string) error {
	return maxRunes("bio", bio, MaxBioLength)
}

// ValidateComment requires non-blank text within the length limit.
func ValidateComment(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}
	return maxRunes("comment", text, MaxCommentLength)
}

// ValidateSearchQuery requires a non-blank query.
func ValidateSearchQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("search query is required")
	}
	return maxRunes("search query", q, MaxQueryLength)
}
