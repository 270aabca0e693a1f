package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"harmonychain/service"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageRenderer struct {
	tmpl *template.Template
}

func loadPages() (*pageRenderer, error) {
	tmpl, err := template.New("layout.html").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

func mustLoadPages() *pageRenderer {
	p, err := loadPages()
	if err != nil {
		panic(err)
	}
	return p
}

// render buffers the page so a template error never leaves a half-written
// response behind.
func (p *pageRenderer) render(w http.ResponseWriter, code int, v service.PageView) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err := buf.WriteTo(w)
	return err
}
