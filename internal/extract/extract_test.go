package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/munin/internal/models"
)

func testExtractor() *Extractor {
	return New(Config{MinPDFChars: 64}, nil)
}

func TestExtractTextIsVerbatim(t *testing.T) {
	e := testExtractor()
	payload := "  Идея: сделать бэкап\n\nhttps://example.com is mentioned but not fetched  "
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindText, Payload: payload})

	if ec.Text != payload {
		t.Errorf("text altered: %q", ec.Text)
	}
	if ec.SourceKind != models.KindText {
		t.Errorf("source kind = %q", ec.SourceKind)
	}
	if ec.Origin != "" || ec.Attachment != nil || len(ec.Warnings) != 0 {
		t.Errorf("unexpected extraction side effects: %+v", ec)
	}
}

func TestDetectKind(t *testing.T) {
	file := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		payload string
		want    models.Kind
	}{
		{"https://example.com/a", models.KindURL},
		{"  http://example.com  ", models.KindURL},
		{file, models.KindFile},
		{filepath.Join(t.TempDir(), "missing.txt"), models.KindText},
		{"relative/path.txt", models.KindText},
		{"just some text", models.KindText},
		{"ftp://example.com/a", models.KindText},
	}
	for _, c := range cases {
		if got := DetectKind(c.payload); got != c.want {
			t.Errorf("DetectKind(%q) = %q, want %q", c.payload, got, c.want)
		}
	}
}

func TestAttachmentFor(t *testing.T) {
	att := attachmentFor("photo.png", []byte("\x89PNG\r\n\x1a\n rest"))
	if att.Ext != ".png" {
		t.Errorf("ext = %q", att.Ext)
	}
	if att.MIME != "image/png" {
		t.Errorf("mime = %q", att.MIME)
	}
	if att.Name != "photo.png" {
		t.Errorf("name = %q", att.Name)
	}
}
