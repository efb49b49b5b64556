package classify

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/munin/internal/models"
)

// ideaMarkers open a first line that should be filed as an idea/task.
var ideaMarkers = []string{"идея", "мысль", "задача", "сделать", "idea", "todo", "task"}

// Folders names the destinations the heuristic rules route into.
type Folders struct {
	Articles string
	Ideas    string
	Inbox    string
}

// Heuristic is the deterministic rule-based classifier used when no model
// is configured or the model call fails. It performs no I/O: identical
// inputs always yield identical output.
type Heuristic struct {
	Folders     Folders
	TitleMaxLen int
}

// Classify applies the routing rules in priority order, first match wins:
//
//  1. URL source that yielded text, or text with link structure → Articles.
//  2. First line opens with an idea/task marker → Ideas.
//  3. Everything else → Inbox.
func (h Heuristic) Classify(ec models.ExtractedContent, receivedAt time.Time) models.Classification {
	folder := h.Folders.Inbox
	switch {
	case (ec.SourceKind == models.KindURL && ec.Text != "") || hasLinkStructure(ec.Text):
		folder = h.Folders.Articles
	case hasIdeaMarker(firstLine(ec.Text)):
		folder = h.Folders.Ideas
	}

	return models.Classification{
		Folder: folder,
		Title:  h.title(ec, receivedAt),
		Source: models.SourceHeuristic,
	}
}

func hasIdeaMarker(line string) bool {
	l := strings.ToLower(line)
	for _, m := range ideaMarkers {
		if l == m || strings.HasPrefix(l, m+":") || strings.HasPrefix(l, m+" ") {
			return true
		}
	}
	return false
}

// title derives a note title: first line of text, else the origin
// reference, else a timestamp placeholder.
func (h Heuristic) title(ec models.ExtractedContent, receivedAt time.Time) string {
	if line := firstLine(ec.Text); line != "" {
		if t := normalizeTitle(line, h.TitleMaxLen); t != "" {
			return t
		}
	}
	if ec.Origin != "" {
		if t := normalizeTitle(originTitle(ec), h.TitleMaxLen); t != "" {
			return t
		}
	}
	// Same zone as the note's date partition.
	return "capture-" + receivedAt.Format("20060102-150405")
}

func originTitle(ec models.ExtractedContent) string {
	if ec.SourceKind == models.KindURL {
		u, err := url.Parse(ec.Origin)
		if err != nil {
			return ec.Origin
		}
		seg := strings.Trim(u.Path, "/")
		if i := strings.LastIndex(seg, "/"); i >= 0 {
			seg = seg[i+1:]
		}
		if seg == "" {
			return u.Host
		}
		return u.Host + " " + seg
	}
	base := filepath.Base(ec.Origin)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
