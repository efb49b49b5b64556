// Package classify assigns a destination folder, title, and tags to
// extracted content. Two implementations exist: a model-backed classifier
// and a pure heuristic fallback that needs no network.
package classify

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Characters that cannot appear in note titles destined for file names.
	titleUnsafeRe  = regexp.MustCompile(`[/\\:*?"<>|[:cntrl:]]`)
	markdownLinkRe = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
)

// firstLine returns the first non-blank line of text, or "".
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// normalizeTitle collapses whitespace, strips path-unsafe characters, and
// truncates to maxLen runes.
func normalizeTitle(raw string, maxLen int) string {
	s := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	s = titleUnsafeRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if maxLen > 0 && len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}

// hasLinkStructure reports whether text carries recognizable link
// structure: a bare URL or a markdown link.
func hasLinkStructure(text string) bool {
	if strings.Contains(text, "http://") || strings.Contains(text, "https://") {
		return true
	}
	return markdownLinkRe.MatchString(text)
}

// contains reports set membership for the allowed-folder clamp.
func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
