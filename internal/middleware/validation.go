package middleware

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
)

// Input limits for user-supplied text.
const (
	MaxVideoIDLen     = 16
	MaxThemeLen       = 200
	MaxCommentTextLen = 10000
	MaxTitleLen       = 100
	MaxDescriptionLen = 5000
)

// videoIDRe matches YouTube video IDs: alphanumeric, dash, underscore.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateText trims s and enforces a rune limit. field names the value in
// the error message.
func ValidateText(field, s string, maxRunes int) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", field + " is required"
	}
	if utf8.RuneCountInString(s) > maxRunes {
		return "", field + " is too long"
	}
	return s, ""
}

// ValidateVideoFields enforces YouTube's title and description limits.
func ValidateVideoFields(title, description string) string {
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return "title must be at most 100 characters"
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return "description must be at most 5000 characters"
	}
	if strings.ContainsAny(title+description, "<>") {
		return "title and description must not contain angle brackets"
	}
	return ""
}
