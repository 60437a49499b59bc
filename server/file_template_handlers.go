package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/jrsteele09/go-church-portal/users"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// pageNames are the content templates rendered inside layout.html.
var pageNames = []string{
	"index.html",
	"login.html",
	"dashboard.html",
	"users.html",
	"groups.html",
	"attendance.html",
	"report.html",
	"blog.html",
	"forbidden.html",
}

// pageData is the model every page is rendered with.
type pageData struct {
	AppName string
	Title   string
	User    *users.User
	Error   string
	Email   string
	Data    any
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"add": func(a, b int) int { return a + b },
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the layout from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// renderPage executes into a buffer first so a template error never leaves a half written page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.AppName = s.config.GetAppName()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		s.logger.Err(err).Str("template", name).Str("path", r.URL.Path).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
