package ws

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// isValidTarget reports whether a routing field can name an identity or a
// connection: non-empty, bounded and free of control characters
func isValidTarget(target string) bool {
	if target == "" || len(target) > domain.MaxIdentityLen {
		return false
	}
	return !controlCharRegex.MatchString(target)
}

// sanitizeIdentity trims a declared identity and rejects unusable ones
func sanitizeIdentity(id string) string {
	id = strings.TrimSpace(id)
	if !isValidTarget(id) {
		return ""
	}
	return id
}

// sanitizeDisplayName cleans a display name for the online list
func sanitizeDisplayName(name, fallback string) string {
	// Trim whitespace
	name = strings.TrimSpace(name)

	// Limit length
	if utf8.RuneCountInString(name) > domain.MaxDisplayNameLen {
		runes := []rune(name)
		name = string(runes[:domain.MaxDisplayNameLen])
	}

	// Remove HTML tags to prevent XSS
	name = htmlTagRegex.ReplaceAllString(name, "")

	// Remove control characters
	name = controlCharRegex.ReplaceAllString(name, "")

	// Trim again after cleaning
	name = strings.TrimSpace(name)

	if name == "" {
		name = fallback
	}
	return name
}
