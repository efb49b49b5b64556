package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// NoteData carries the substitution fields available to note templates.
type NoteData struct {
	Title          string
	Created        string // ISO date of ingestion
	Origin         string // URL or file path, empty for plain text
	SourceKind     string
	Tags           []string
	Body           string
	AttachmentLink string // vault-relative attachment path, empty when none
}

// TagsYAML renders the tag set as a YAML list block indented for
// frontmatter embedding.
func (d NoteData) TagsYAML() string {
	if len(d.Tags) == 0 {
		return ""
	}
	out, err := yaml.Marshal(d.Tags)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// defaultTemplate is used when the configured template file is missing or
// does not parse. It produces a frontmatter note in the canonical format.
const defaultTemplate = `---
title: {{ .Title }}
created: {{ .Created }}
{{- if .Origin }}
source: {{ .Origin }}
{{- end }}
{{- if .Tags }}
tags:
{{ .TagsYAML }}
{{- end }}
---

# {{ .Title }}

{{ .Body }}
{{- if .AttachmentLink }}

## Files

- [[{{ .AttachmentLink }}]]
{{- end }}
`

// Templates renders notes from operator-managed template files. The files
// are opaque parameterized text blobs selected by name and never mutated.
type Templates struct {
	dir string
}

// NewTemplates creates a template loader rooted at dir.
func NewTemplates(dir string) *Templates {
	return &Templates{dir: dir}
}

// Render substitutes data into the named template. A missing or broken
// template file degrades to the built-in default so a configuration typo
// never makes a capture fatal; only substitution itself can fail.
func (t *Templates) Render(name string, data NoteData) ([]byte, error) {
	src := defaultTemplate
	if t.dir != "" && name != "" {
		if raw, err := os.ReadFile(filepath.Join(t.dir, name)); err == nil {
			src = string(raw)
		}
	}

	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		tmpl, err = template.New("default").Parse(defaultTemplate)
		if err != nil {
			return nil, fmt.Errorf("vault: parse default template: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("vault: render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
