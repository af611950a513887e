package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/pkg/constants"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"list.html", "form.html"}

var funcs = template.FuncMap{
	"taskTypes":  func() []string { return TaskTypes },
	"staff":      func() []string { return Staff },
	"entities":   func() []string { return Entities },
	"priorities": func() []constants.Priority { return constants.Priorities },
}

// Renderer executes each page inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
