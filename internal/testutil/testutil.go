// Package testutil provides shared test helpers for setting up vaults,
// journals, and pipelines.
package testutil

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/munin/internal/classify"
	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/pipeline"
	"github.com/starford/munin/internal/vault"
)

// TestVault creates a temporary vault directory with a vault.FS.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := vault.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, fs
}

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "munin-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFolders returns the folder set used across tests.
func TestFolders() classify.Folders {
	return classify.Folders{Articles: "Articles", Ideas: "Ideas", Inbox: "Inbox"}
}

// TestPipeline assembles a heuristic-only pipeline over a temporary
// vault. It returns the vault directory for inspecting written files.
func TestPipeline(t *testing.T, jrnl *journal.DB) (string, *pipeline.Pipeline) {
	t.Helper()
	vaultDir, fs := TestVault(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	pipe := pipeline.New(pipeline.Options{
		Extractor: extract.New(extract.Config{Timeout: 5 * time.Second, MinPDFChars: 64}, logger),
		Heuristic: classify.Heuristic{Folders: TestFolders(), TitleMaxLen: 80},
		FS:        fs,
		Templates: vault.NewTemplates(vaultDir + "/Templates"),
		Journal:   jrnl,
		Layout: pipeline.Layout{
			ExportRoot:      "Export",
			AttachmentsRoot: "Attachments",
			DefaultTemplate: "note.md",
		},
		Logger: logger,
	})
	return vaultDir, pipe
}
