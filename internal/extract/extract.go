// Package extract converts raw inputs (text, URLs, local files) into
// normalized plain text plus an optional binary attachment.
//
// Extraction never fails: every error is recorded as a warning on the
// result and the best partial content is returned, possibly an empty
// string. Attachment preservation is independent of text extraction so
// the original source survives even when content understanding does not.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/starford/munin/internal/models"
)

// Config bounds the extractor.
type Config struct {
	Timeout     time.Duration // per network fetch
	MinPDFChars int           // text-layer yield below this triggers OCR
	OCRBinary   string        // tesseract-compatible binary, "" disables OCR
}

// Extractor dispatches on input kind and produces ExtractedContent.
type Extractor struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// New creates an Extractor.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger,
	}
}

// Extract produces normalized content for one item. It never returns an
// error; failures degrade to warnings on the result.
func (e *Extractor) Extract(ctx context.Context, item models.RawItem) models.ExtractedContent {
	switch item.Kind {
	case models.KindURL:
		return e.fromURL(ctx, strings.TrimSpace(item.Payload))
	case models.KindFile:
		return e.fromFile(ctx, strings.TrimSpace(item.Payload))
	default:
		// Plain text is the payload verbatim; no network or file I/O.
		return models.ExtractedContent{
			SourceKind: models.KindText,
			Text:       item.Payload,
		}
	}
}

// DetectKind classifies one raw input line: a URL by scheme prefix, a file
// path by filesystem existence, free text otherwise.
func DetectKind(payload string) models.Kind {
	p := strings.TrimSpace(payload)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return models.KindURL
	}
	if filepath.IsAbs(p) {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return models.KindFile
		}
	}
	return models.KindText
}

// attachmentFor wraps raw bytes with inferred MIME type and extension.
func attachmentFor(name string, data []byte) *models.Attachment {
	mt := mimetype.Detect(data)
	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(name))
	}
	if name == "" {
		name = "file" + ext
	}
	return &models.Attachment{
		Name: name,
		Data: data,
		MIME: mt.String(),
		Ext:  ext,
	}
}

func warnf(ec *models.ExtractedContent, format string, args ...any) {
	ec.Warnings = append(ec.Warnings, fmt.Sprintf(format, args...))
}
