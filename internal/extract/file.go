package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/starford/munin/internal/models"
)

// fromFile reads the file and branches on its detected type: PDF gets
// text-layer extraction with an OCR fallback, images go straight to OCR,
// textual files are read raw, everything else stays an opaque attachment.
// The attachment is captured whenever the file is readable, regardless of
// what text extraction yields.
func (e *Extractor) fromFile(ctx context.Context, filePath string) models.ExtractedContent {
	ec := models.ExtractedContent{SourceKind: models.KindFile, Origin: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		warnf(&ec, "file: read %s: %v", filePath, err)
		return ec
	}
	att := attachmentFor(filepath.Base(filePath), data)
	ec.Attachment = att

	switch {
	case att.Ext == ".pdf":
		text, pdfErr := pdfText(data)
		if pdfErr != nil {
			warnf(&ec, "file: pdf text layer of %s: %v", filePath, pdfErr)
		}
		if len(text) < e.cfg.MinPDFChars {
			ocrText, ocrErr := e.ocr(ctx, filePath)
			if ocrErr != nil {
				warnf(&ec, "file: ocr fallback for %s: %v", filePath, ocrErr)
			} else if len(ocrText) > len(text) {
				text = ocrText
			}
		}
		ec.Text = text

	case strings.HasPrefix(att.MIME, "image/"):
		text, ocrErr := e.ocr(ctx, filePath)
		if ocrErr != nil {
			warnf(&ec, "file: ocr %s: %v", filePath, ocrErr)
		}
		ec.Text = text

	case isTextual(att.MIME) && utf8.Valid(data):
		ec.Text = string(data)

	default:
		// Opaque attachment: preserved with empty text.
	}
	return ec
}

func isTextual(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch {
	case strings.Contains(mime, "json"),
		strings.Contains(mime, "xml"),
		strings.Contains(mime, "yaml"),
		strings.Contains(mime, "csv"):
		return true
	}
	return false
}

// pdfText extracts the text layer of a PDF held in memory.
func pdfText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// ocr shells out to the configured tesseract-compatible binary. A missing
// binary is an expected deployment state and degrades to a warning.
func (e *Extractor) ocr(ctx context.Context, filePath string) (string, error) {
	if e.cfg.OCRBinary == "" {
		return "", fmt.Errorf("ocr disabled")
	}
	if _, err := exec.LookPath(e.cfg.OCRBinary); err != nil {
		return "", fmt.Errorf("ocr binary %q not installed", e.cfg.OCRBinary)
	}
	out, err := exec.CommandContext(ctx, e.cfg.OCRBinary, filePath, "stdout").Output()
	if err != nil {
		return "", fmt.Errorf("ocr run: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
