package vault

import (
	"regexp"
	"strings"
)

var (
	slugUnsafe = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
)

// Slug converts a note title into a file name stem: unicode letters,
// digits, underscores and dashes survive, whitespace collapses to a
// single underscore.
func Slug(title string) string {
	s := strings.TrimSpace(title)
	s = slugUnsafe.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "note"
	}
	return s
}
