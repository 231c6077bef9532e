package http

import (
	"regexp"
)

// Input validation constants
const (
	MaxWaIDLength     = 20
	MaxUsernameLength = 64
)

var (
	waidPattern     = regexp.MustCompile(`^[0-9]{7,20}$`)
	slugPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	templatePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// ValidWaID checks a messaging-transport user id (digits only, like a
// phone number without the plus sign).
func ValidWaID(s string) bool {
	return waidPattern.MatchString(s)
}

// ValidSlug checks if a slug is safe (alphanumeric + underscore + hyphen)
func ValidSlug(s string) bool {
	if s == "" || len(s) > MaxUsernameLength {
		return false
	}
	return slugPattern.MatchString(s)
}

// ValidTemplateName checks a Cloud API template identifier.
func ValidTemplateName(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	return templatePattern.MatchString(s)
}
