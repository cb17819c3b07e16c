package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fast-pizza/internal/domain/order"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return "€" + d.StringFixed(2)
	},
	"clock": func(t time.Time) string {
		return t.Format("Jan 2, 15:04")
	},
}

// pages holds one template set per page, each combined with the layout.
type pages struct {
	set map[string]*template.Template
}

func parsePages() (*pages, error) {
	p := &pages{set: make(map[string]*template.Template)}
	for _, name := range []string{"form.html", "order.html", "error.html"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		p.set[name] = t
	}
	return p, nil
}

func (p *pages) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.set[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *pages) form(w http.ResponseWriter, status int, v *order.FormView) {
	p.render(w, status, "form.html", v)
}

func (p *pages) order(w http.ResponseWriter, status int, v orderView) {
	p.render(w, status, "order.html", v)
}

func (p *pages) error(w http.ResponseWriter, status int, msg string) {
	p.render(w, status, "error.html", struct {
		Status  int
		Message string
	}{status, msg})
}
