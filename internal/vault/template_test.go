package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderDefaultTemplate(t *testing.T) {
	tm := NewTemplates("")
	out, err := tm.Render("note.md", NoteData{
		Title:      "A Note",
		Created:    "2026-08-28",
		Origin:     "https://example.com/post",
		SourceKind: "url",
		Tags:       []string{"go", "vault"},
		Body:       "body text",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		"title: A Note",
		"created: 2026-08-28",
		"source: https://example.com/post",
		"- go",
		"# A Note",
		"body text",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "## Files") {
		t.Error("attachment section rendered without an attachment")
	}
}

func TestRenderAttachmentSection(t *testing.T) {
	tm := NewTemplates("")
	out, err := tm.Render("note.md", NoteData{
		Title:          "With File",
		Created:        "2026-08-28",
		AttachmentLink: "Attachments/2026/08/ab12cd34_report.pdf",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "[[Attachments/2026/08/ab12cd34_report.pdf]]") {
		t.Errorf("attachment link missing:\n%s", out)
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	custom := "CUSTOM {{ .Title }}\n"
	if err := os.WriteFile(filepath.Join(dir, "article.md"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	tm := NewTemplates(dir)
	out, err := tm.Render("article.md", NoteData{Title: "X"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "CUSTOM X\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRenderMissingTemplateFallsBack(t *testing.T) {
	tm := NewTemplates(t.TempDir())
	out, err := tm.Render("nope.md", NoteData{Title: "Fallback"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "# Fallback") {
		t.Errorf("default template not used:\n%s", out)
	}
}

func TestRenderBrokenTemplateFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.md"), []byte("{{ .Title"), 0o644); err != nil {
		t.Fatal(err)
	}
	tm := NewTemplates(dir)
	out, err := tm.Render("bad.md", NoteData{Title: "Survives"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "# Survives") {
		t.Errorf("default template not used:\n%s", out)
	}
}

func TestTagsYAML(t *testing.T) {
	d := NoteData{Tags: []string{"alpha", "beta"}}
	got := d.TagsYAML()
	if got != "  - alpha\n  - beta" {
		t.Errorf("TagsYAML = %q", got)
	}
	if (NoteData{}).TagsYAML() != "" {
		t.Error("empty tags should render empty string")
	}
}
