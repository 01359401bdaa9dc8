// Package render draws the server-side HTML pages.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds the landing page.
type PageData struct {
	VKMusicURL     string
	YandexMusicURL string
	Telegram       string
	Instagram      string
	VKProfile      string
	CoursePrice    string
	PaymentSuccess bool
	PaymentFailure bool
}

// Renderer writes a named page.
type Renderer interface {
	Render(w io.Writer, page string, data PageData) error
}

// Templates renders pages from the embedded template set.
type Templates struct {
	set *template.Template
}

// NewTemplates parses the embedded templates.
func NewTemplates() (*Templates, error) {
	set, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{set: set}, nil
}

func (t *Templates) Render(w io.Writer, page string, data PageData) error {
	if t.set.Lookup(page) == nil {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.set.ExecuteTemplate(w, page, data)
}
