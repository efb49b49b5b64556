// Package pipeline orchestrates one capture end to end:
// extract → classify (model, else heuristic) → resolve paths → write.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/munin/internal/apperr"
	"github.com/starford/munin/internal/classify"
	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/vault"
)

// Layout describes where notes and attachments land inside the vault.
type Layout struct {
	ExportRoot      string
	AttachmentsRoot string
	Templates       map[string]string // folder -> template file name
	DefaultTemplate string
}

func (l Layout) templateFor(folder string) string {
	if name, ok := l.Templates[folder]; ok && name != "" {
		return name
	}
	return l.DefaultTemplate
}

// Options wires a Pipeline. Model and Journal are optional: a nil Model
// means heuristic-only mode, a nil Journal disables the capture ledger.
type Options struct {
	Extractor *extract.Extractor
	Model     *classify.Model
	Heuristic classify.Heuristic
	FS        *vault.FS
	Templates *vault.Templates
	Journal   *journal.DB
	Layout    Layout
	Logger    *slog.Logger
}

// Pipeline processes items one at a time; processing is strictly
// sequential per instance, which keeps collision resolution correct
// without locking.
type Pipeline struct {
	extractor *extract.Extractor
	model     *classify.Model
	heuristic classify.Heuristic
	fs        *vault.FS
	templates *vault.Templates
	journal   *journal.DB
	layout    Layout
	log       *slog.Logger
}

// New creates a Pipeline from options.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: opts.Extractor,
		model:     opts.Model,
		heuristic: opts.Heuristic,
		fs:        opts.FS,
		templates: opts.Templates,
		journal:   opts.Journal,
		layout:    opts.Layout,
		log:       logger,
	}
}

// Handle processes a single item to completion and returns the stored
// paths. The only fatal outcome is a write failure; extraction and
// classification problems degrade to warnings and fallbacks.
func (p *Pipeline) Handle(ctx context.Context, item models.RawItem) (*models.WriteResult, error) {
	if item.ReceivedAt.IsZero() {
		item.ReceivedAt = time.Now()
	}

	ec := p.extractor.Extract(ctx, item)
	for _, w := range ec.Warnings {
		p.log.Warn("extraction warning", slog.String("kind", string(item.Kind)), slog.String("warning", w))
	}

	cls := p.classify(ctx, ec, item.ReceivedAt)
	placement := p.place(cls, ec, item.ReceivedAt)

	res, err := p.write(ctx, placement, cls, ec, item.ReceivedAt)
	if err != nil {
		return nil, err
	}

	p.record(item, ec, cls, res)
	p.log.Info("item stored",
		slog.String("kind", string(item.Kind)),
		slog.String("folder", cls.Folder),
		slog.String("source", string(cls.Source)),
		slog.String("note", res.NotePath))
	return res, nil
}

// classify tries the model classifier once and falls back to the
// heuristic on any failure. The fallback is unconditional and silent to
// the operator; only a warning is logged.
func (p *Pipeline) classify(ctx context.Context, ec models.ExtractedContent, receivedAt time.Time) models.Classification {
	if p.model != nil {
		cls, err := p.model.Classify(ctx, ec)
		if err == nil {
			return cls
		}
		p.log.Warn("model classification failed, falling back to heuristic",
			slog.String("error", err.Error()))
	}
	return p.heuristic.Classify(ec, receivedAt)
}

// place resolves collision-free relative paths. The note and the
// attachment share the YYYY/MM partition derived from the ingestion time
// but occupy independent namespaces.
func (p *Pipeline) place(cls models.Classification, ec models.ExtractedContent, receivedAt time.Time) models.VaultPlacement {
	partition := receivedAt.Format("2006/01")

	noteRel := path.Join(p.layout.ExportRoot, cls.Folder, partition, vault.Slug(cls.Title)+".md")
	noteRel = p.fs.NextFree(noteRel)

	var attRel string
	if ec.Attachment != nil {
		attRel = path.Join(p.layout.AttachmentsRoot, partition, attachmentName(ec.Attachment))
		attRel = p.fs.NextFree(attRel)
	}

	return models.VaultPlacement{
		NotePath:       noteRel,
		AttachmentPath: attRel,
		TemplateName:   p.layout.templateFor(cls.Folder),
	}
}

// write materializes the placement. The attachment is committed before
// the note so the note's reference is never dangling; each file is
// written atomically (temp then rename). If the note then fails to
// commit, or the context is cancelled in between, the attachment this
// call created is rolled back so no orphaned file stays visible.
func (p *Pipeline) write(ctx context.Context, pl models.VaultPlacement, cls models.Classification, ec models.ExtractedContent, receivedAt time.Time) (*models.WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attWritten := false
	if pl.AttachmentPath != "" {
		if err := p.fs.Write(pl.AttachmentPath, ec.Attachment.Data); err != nil {
			return nil, fmt.Errorf("%w: attachment %s: %v", apperr.ErrWriteFailed, pl.AttachmentPath, err)
		}
		attWritten = true
	}

	// The attachment path was free before this call (NextFree), so on
	// failure the file being removed is always our own.
	rollback := func() {
		if !attWritten {
			return
		}
		if err := p.fs.Remove(pl.AttachmentPath); err != nil {
			p.log.Warn("attachment rollback failed",
				slog.String("path", pl.AttachmentPath), slog.String("error", err.Error()))
		}
	}

	data, err := p.templates.Render(pl.TemplateName, vault.NoteData{
		Title:          cls.Title,
		Created:        receivedAt.Format("2006-01-02"),
		Origin:         ec.Origin,
		SourceKind:     string(ec.SourceKind),
		Tags:           cls.Tags,
		Body:           ec.Text,
		AttachmentLink: pl.AttachmentPath,
	})
	if err != nil {
		rollback()
		return nil, fmt.Errorf("%w: %v", apperr.ErrWriteFailed, err)
	}

	if err := ctx.Err(); err != nil {
		rollback()
		return nil, err
	}
	if err := p.fs.Write(pl.NotePath, data); err != nil {
		rollback()
		return nil, fmt.Errorf("%w: note %s: %v", apperr.ErrWriteFailed, pl.NotePath, err)
	}

	return &models.WriteResult{
		NotePath:       pl.NotePath,
		AttachmentPath: pl.AttachmentPath,
	}, nil
}

// record appends the capture to the journal; ledger problems never fail
// an already-written item.
func (p *Pipeline) record(item models.RawItem, ec models.ExtractedContent, cls models.Classification, res *models.WriteResult) {
	if p.journal == nil {
		return
	}
	checksum := contentChecksum(ec)
	if seen, err := p.journal.SeenChecksum(checksum); err == nil && seen {
		p.log.Warn("duplicate content captured before", slog.String("checksum", checksum))
	}
	err := p.journal.Insert(journal.Record{
		Kind:           string(item.Kind),
		Origin:         ec.Origin,
		Folder:         cls.Folder,
		Title:          cls.Title,
		NotePath:       res.NotePath,
		AttachmentPath: res.AttachmentPath,
		Source:         string(cls.Source),
		Warnings:       ec.Warnings,
		Checksum:       checksum,
		CreatedAt:      item.ReceivedAt,
	})
	if err != nil {
		p.log.Warn("journal insert failed", slog.String("error", err.Error()))
	}
}

// attachmentName prefixes the sanitized original name with a short
// content hash so identically named files from different sources stay
// distinguishable.
func attachmentName(att *models.Attachment) string {
	sum := sha256.Sum256(att.Data)
	base := strings.TrimSuffix(att.Name, path.Ext(att.Name))
	return hex.EncodeToString(sum[:])[:8] + "_" + vault.Slug(base) + att.Ext
}

func contentChecksum(ec models.ExtractedContent) string {
	h := sha256.New()
	h.Write([]byte(ec.Text))
	if ec.Attachment != nil {
		h.Write(ec.Attachment.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
