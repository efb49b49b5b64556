package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/munin/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteCreatesSubdirs(t *testing.T) {
	fs := tempVault(t)
	if err := fs.Write("Export/Articles/2026/08/note.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(fs.Root(), "Export/Articles/2026/08/note.md"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	fs := tempVault(t)
	if err := fs.Write("sub/a.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(fs.Root(), "sub"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".munin-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	fs := tempVault(t)
	for _, rel := range []string{"../escape.md", "a/../../escape.md", "/etc/passwd", ""} {
		if err := fs.Write(rel, []byte("x")); err == nil {
			t.Errorf("Write(%q): expected error", rel)
		}
	}
}

func TestNextFree(t *testing.T) {
	fs := tempVault(t)
	if got := fs.NextFree("a/note.md"); got != "a/note.md" {
		t.Errorf("NextFree on empty vault = %q", got)
	}

	if err := fs.Write("a/note.md", []byte("1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := fs.NextFree("a/note.md"); got != "a/note-2.md" {
		t.Errorf("NextFree after first = %q, want a/note-2.md", got)
	}

	if err := fs.Write("a/note-2.md", []byte("2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := fs.NextFree("a/note.md"); got != "a/note-3.md" {
		t.Errorf("NextFree after second = %q, want a/note-3.md", got)
	}
}

func TestNextFreeAttachmentKeepsExtension(t *testing.T) {
	fs := tempVault(t)
	if err := fs.Write("Attachments/2026/08/ab12cd34_report.pdf", []byte("pdf")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := fs.NextFree("Attachments/2026/08/ab12cd34_report.pdf")
	if got != "Attachments/2026/08/ab12cd34_report-2.pdf" {
		t.Errorf("NextFree = %q", got)
	}
}

func TestWriteRenameFailureLeavesNothing(t *testing.T) {
	fs := tempVault(t)

	// A final name longer than NAME_MAX lets the temp file be created
	// and filled, then makes the rename step fail.
	rel := "sub/" + strings.Repeat("x", 300) + ".md"
	if err := fs.Write(rel, []byte("never visible")); err == nil {
		t.Fatal("expected rename failure")
	}

	entries, err := os.ReadDir(filepath.Join(fs.Root(), "sub"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("leftover file after failed write: %s", e.Name())
	}
}

func TestWriteRefusesOverwrite(t *testing.T) {
	fs := tempVault(t)
	if err := fs.Write("a/note.md", []byte("original")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	err := fs.Write("a/note.md", []byte("clobber"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	got, _ := os.ReadFile(filepath.Join(fs.Root(), "a/note.md"))
	if string(got) != "original" {
		t.Errorf("content clobbered: %q", got)
	}
}

func TestNewFSRequiresExistingDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
