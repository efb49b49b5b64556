package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/pipeline"
)

// Handler holds API route handlers.
type Handler struct {
	pipe *pipeline.Pipeline
	jrnl *journal.DB
}

// NewHandler creates a new Handler.
func NewHandler(pipe *pipeline.Pipeline, jrnl *journal.DB) *Handler {
	return &Handler{pipe: pipe, jrnl: jrnl}
}

// CaptureRequest is the request body for capturing one item. Kind is
// optional; when omitted the payload is classified by scheme prefix and
// filesystem existence.
type CaptureRequest struct {
	Payload string `json:"payload"`
	Kind    string `json:"kind,omitempty"`
}

// Capture handles POST /api/capture: one item in, one WriteResult out.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Payload == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("payload is required"))
		return
	}

	kind := models.Kind(req.Kind)
	switch kind {
	case models.KindText, models.KindURL, models.KindFile:
	case "":
		kind = extract.DetectKind(req.Payload)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("kind must be one of text, url, file"))
		return
	}

	item := models.RawItem{Kind: kind, Payload: req.Payload, ReceivedAt: time.Now()}
	res, err := h.pipe.Handle(r.Context(), item)
	if err != nil {
		slog.Error("capture failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to store item"))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Journal handles GET /api/journal?limit=N.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	if h.jrnl == nil {
		writeJSON(w, http.StatusOK, map[string]any{"captures": []journal.Record{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.jrnl.Recent(limit)
	if err != nil {
		slog.Error("journal read failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"captures": records})
}
