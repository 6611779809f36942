package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"eventmanager/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// eventDateLayout is how event dates appear in e-mails.
const eventDateLayout = "Monday, 2 January 2006 15:04 MST"

var templateFuncs = map[string]any{
	"eventDate": func(t time.Time) string { return t.Format(eventDateLayout) },
}

// templateRenderer implements domain.EmailTemplateRenderer. Each e-mail is a triple of
// embedded files: <name>_subject.txt, <name>.html and <name>.txt.
type templateRenderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewTemplateRenderer parses the embedded templates once. The templates ship with the
// binary, so a parse error is a build defect and panics.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{
		html: htmltemplate.Must(htmltemplate.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
		text: texttemplate.Must(texttemplate.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.txt")),
	}
}

// Render executes the named template (e.g. "registration_confirmation") with data and returns
// the trimmed subject plus the html and text bodies.
func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	if subject, err = executeText(r.text, templateName+"_subject.txt", data); err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	if textBody, err = executeText(r.text, templateName+".txt", data); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	t := r.html.Lookup(templateName + ".html")
	if t == nil {
		return "", "", "", domain.NotFoundf("email template %s.html", templateName)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	return strings.TrimSpace(subject), buf.String(), textBody, nil
}

func executeText(set *texttemplate.Template, name string, data any) (string, error) {
	t := set.Lookup(name)
	if t == nil {
		return "", domain.NotFoundf("email template %s", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
