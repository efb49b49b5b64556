// Package api implements the Munin capture API using chi.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/pipeline"
)

// NewRouter creates a chi router with the capture routes mounted.
// authEnabled controls whether Bearer token auth is enforced; the token
// identifies the single allowed operator.
func NewRouter(pipe *pipeline.Pipeline, jrnl *journal.DB, authEnabled bool, token string) chi.Router {
	h := NewHandler(pipe, jrnl)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/capture", h.Capture)
	r.Get("/journal", h.Journal)

	return r
}
