// Package models defines the domain types for Munin.
package models

import "time"

// Kind identifies what a raw item's payload represents.
type Kind string

// Supported input kinds.
const (
	KindText Kind = "text"
	KindURL  Kind = "url"
	KindFile Kind = "file"
)

// ConfidenceSource records which classifier produced a Classification.
type ConfidenceSource string

// Classifier sources.
const (
	SourceModel     ConfidenceSource = "model"
	SourceHeuristic ConfidenceSource = "heuristic"
)

// RawItem is one incoming capture: free text, a URL, or a local file path.
// It is created at ingestion and consumed exactly once by the pipeline.
type RawItem struct {
	Kind       Kind      `json:"kind"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// Attachment holds the original bytes of a captured file plus the inferred
// content type, preserved independently of text extraction success.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
	MIME string `json:"mime"`
	Ext  string `json:"ext"`
}

// ExtractedContent is the normalized output of extraction for one item.
// Text is never "missing": extraction failures leave it empty and append
// a human-readable entry to Warnings instead.
type ExtractedContent struct {
	SourceKind Kind        `json:"source_kind"`
	Origin     string      `json:"origin,omitempty"` // URL or file path, empty for plain text
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Classification is the routing decision for one item. Produced once,
// never mutated.
type Classification struct {
	Folder string           `json:"folder"` // relative vault folder, e.g. "Ideas"
	Title  string           `json:"title"`
	Tags   []string         `json:"tags,omitempty"`
	Source ConfidenceSource `json:"source"`
}

// VaultPlacement names the final, collision-free destinations for one item.
// NotePath and AttachmentPath (when set) share the same YYYY/MM partition
// derived from the item's ReceivedAt.
type VaultPlacement struct {
	NotePath       string // relative to vault root
	AttachmentPath string // relative to vault root, empty when no attachment
	TemplateName   string
}

// WriteResult is the confirmation returned for a successfully stored item.
type WriteResult struct {
	NotePath       string `json:"note_path"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}
