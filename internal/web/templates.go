package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) float64 { return v * 100 },
	}).ParseFS(templateFS, "templates/*.html"))
}
