// Package vault materializes notes and attachments in the vault tree.
// The pipeline only ever appends files; nothing here deletes or overwrites.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/munin/internal/apperr"
)

// FS performs file-system writes rooted at the vault directory.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("vault: empty path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// Exists reports whether a file already occupies the given relative path.
func (f *FS) Exists(rel string) bool {
	abs, err := f.safePath(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// NextFree returns rel if that path is unoccupied, otherwise the first
// variant with a numeric disambiguator before the extension
// (name-2.md, name-3.md, ...). Sequential check-then-create is sufficient
// for the single-writer deployment model.
func (f *FS) NextFree(rel string) string {
	if !f.Exists(rel) {
		return rel
	}
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !f.Exists(candidate) {
			return candidate
		}
	}
}

// Remove deletes a file previously created by Write. It exists for
// failure-path cleanup only: rolling back an attachment whose note never
// committed. A missing file is not an error.
func (f *FS) Remove(rel string) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vault: remove: %w", err)
	}
	return nil
}

// Write atomically creates a new file: tmp file, fsync, rename.
// Parent directories are created on demand. A failure on any step removes
// the temporary file so no partial write is ever visible. Writing to an
// occupied path is refused; callers resolve collisions with NextFree.
func (f *FS) Write(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, rel)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".munin-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true
	return nil
}
