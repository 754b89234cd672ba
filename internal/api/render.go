package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/example/ec-product-card/internal/page"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("page.html").
		Funcs(template.FuncMap{
			"ratings": func() []int { return []int{5, 4, 3, 2, 1} },
		}).
		ParseFS(templateFS, "templates/page.html"),
)

// renderPage writes the product page, buffering so template errors never send a partial body
func renderPage(w http.ResponseWriter, status int, v page.View) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
