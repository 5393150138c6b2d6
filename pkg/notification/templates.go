package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"maps"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Rendered is a notification ready for delivery.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer renders the embedded per-type templates.
type Renderer struct {
	brand string
	text  *texttemplate.Template
	html  *htmltemplate.Template
}

// NewRenderer parses the embedded templates. brand fills {{.Brand}}.
func NewRenderer(brand string) (*Renderer, error) {
	text, err := texttemplate.New("text").Option("missingkey=zero").ParseFS(templateFS, "templates/text.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	html, err := htmltemplate.New("html").Option("missingkey=zero").ParseFS(templateFS, "templates/html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &Renderer{brand: brand, text: text, html: html}, nil
}

// MustNewRenderer is NewRenderer that panics on error.
func MustNewRenderer(brand string) *Renderer {
	r, err := NewRenderer(brand)
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether t has templates.
func (r *Renderer) Has(t Type) bool {
	return r.text.Lookup(string(t)+".subject") != nil
}

// Render executes the subject, text and html templates of t with data.
func (r *Renderer) Render(t Type, data map[string]string) (Rendered, error) {
	if !r.Has(t) {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, t)
	}

	vars := make(map[string]string, len(data)+1)
	vars["Brand"] = r.brand
	maps.Copy(vars, data)

	var out Rendered
	var err error
	if out.Subject, err = r.execText(string(t)+".subject", vars); err != nil {
		return Rendered{}, err
	}
	if out.Text, err = r.execText(string(t)+".text", vars); err != nil {
		return Rendered{}, err
	}

	var body bytes.Buffer
	if err := r.html.ExecuteTemplate(&body, string(t)+".html", vars); err != nil {
		return Rendered{}, fmt.Errorf("%w: %s html: %v", ErrRenderFailed, t, err)
	}
	var page bytes.Buffer
	// Body is already escaped by the first pass.
	layout := struct {
		Brand string
		Body  htmltemplate.HTML
	}{Brand: vars["Brand"], Body: htmltemplate.HTML(body.String())}
	if err := r.html.ExecuteTemplate(&page, "layout", layout); err != nil {
		return Rendered{}, fmt.Errorf("%w: %s layout: %v", ErrRenderFailed, t, err)
	}
	out.HTML = page.String()
	return out, nil
}

func (r *Renderer) execText(name string, vars map[string]string) (string, error) {
	var b strings.Builder
	if err := r.text.ExecuteTemplate(&b, name, vars); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
