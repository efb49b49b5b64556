package pipeline

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/models"
)

// BatchResult is the outcome for one input line.
type BatchResult struct {
	Line   int
	Input  string
	Result *models.WriteResult
	Err    error
}

// RunBatch processes a line-per-item input strictly sequentially: each
// item completes before the next starts, results preserve input order,
// and one failure never halts the rest. Each line is interpreted as a
// URL (by scheme prefix), an existing absolute file path, or free text.
func (p *Pipeline) RunBatch(ctx context.Context, r io.Reader) []BatchResult {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var out []BatchResult
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			out = append(out, BatchResult{Line: line, Input: raw, Err: err})
			continue
		}
		item := models.RawItem{
			Kind:       extract.DetectKind(raw),
			Payload:    raw,
			ReceivedAt: time.Now(),
		}
		res, err := p.Handle(ctx, item)
		if err != nil {
			p.log.Error("batch item failed",
				slog.Int("line", line), slog.String("error", err.Error()))
		}
		out = append(out, BatchResult{Line: line, Input: raw, Result: res, Err: err})
	}
	if err := sc.Err(); err != nil {
		out = append(out, BatchResult{Line: line + 1, Err: err})
	}
	return out
}
