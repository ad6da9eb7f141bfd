// Package web provides the building blocks for embedded web frontends:
// a mux with fallback routing, static asset serving, and pre-parsed page
// templates.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

// ViewData is the payload handed to page templates. BasePath carries the
// module mount prefix so templates emit portable asset URLs.
type ViewData struct {
	Title    string
	BasePath string
	Data     any
}

// TemplateSet holds page templates parsed once at startup plus the base
// path injected into every render.
type TemplateSet struct {
	templates *template.Template
	basePath  string
}

// NewTemplateSet parses every template matching glob from fsys. A broken
// template fails construction rather than the first request.
func NewTemplateSet(fsys fs.FS, glob, basePath string) (*TemplateSet, error) {
	templates, err := template.ParseFS(fsys, glob)
	if err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", glob, err)
	}
	return &TemplateSet{templates: templates, basePath: basePath}, nil
}

// Render executes the named template with the given title and data. The
// template runs against a buffer first so a failed render never emits a
// partial page.
func (ts *TemplateSet) Render(w http.ResponseWriter, name, title string, data any) error {
	var buf bytes.Buffer
	err := ts.templates.ExecuteTemplate(&buf, name, ViewData{
		Title:    title,
		BasePath: ts.basePath,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// PageHandler returns a handler that renders the named template.
func (ts *TemplateSet) PageHandler(name, title string, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ts.Render(w, name, title, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
