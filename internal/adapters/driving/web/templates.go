package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// LoginData holds data for rendering the login page template.
type LoginData struct {
	SPEntityID string
	Error      string
}

// ErrorData holds data for rendering error page templates.
type ErrorData struct {
	Title   string
	Message string
}

// AutoPostData holds data for the auto-submitting response form.
type AutoPostData struct {
	ACSURL       string
	SAMLResponse string
	RelayState   string
}

// TemplateRenderer renders the login, error and auto-post pages.
type TemplateRenderer struct {
	login    *template.Template
	err      *template.Template
	autopost *template.Template
}

// NewTemplateRenderer creates a renderer using embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	login, err := template.ParseFS(embeddedTemplates, "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded login.html: %w", err)
	}
	errTmpl, err := template.ParseFS(embeddedTemplates, "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded error.html: %w", err)
	}
	autopost, err := template.ParseFS(embeddedTemplates, "templates/autopost.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded autopost.html: %w", err)
	}
	return &TemplateRenderer{login: login, err: errTmpl, autopost: autopost}, nil
}

// RenderLogin renders the credential form.
func (r *TemplateRenderer) RenderLogin(w io.Writer, data LoginData) error {
	return r.login.Execute(w, data)
}

// RenderError renders an error page.
func (r *TemplateRenderer) RenderError(w io.Writer, data ErrorData) error {
	return r.err.Execute(w, data)
}

// RenderAutoPost renders the auto-submitting form that delivers the
// signed response to the SP's ACS URL.
func (r *TemplateRenderer) RenderAutoPost(w io.Writer, data AutoPostData) error {
	return r.autopost.Execute(w, data)
}
