package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// templateRenderer renders the embedded page templates for echo.Context.Render.
type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &templateRenderer{templates: t}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
