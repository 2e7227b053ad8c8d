package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/vishvavidya/traininghub/fs"
)

const emailTemplatesDir = "templates/email"

// emailTemplate pairs the mandatory plain text body of a notification with its optional HTML body.
type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	templates    map[string]*emailTemplate
	templatesErr error
	tmplInit     sync.Once
)

type (
	EmailMessage struct {
		From    *mail.Address // optional; the service default sender is used when nil
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the root object of every email template.
	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent and HTMLContent from BodyStr or from the named template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(loadTemplates)
	if templatesErr != nil {
		return templatesErr
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok || tmpl.text == nil {
		return errors.Errorf("email template %q not found", m.TemplateName+".txt")
	}

	data := ContextData{AppName: Conf.AppName, FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}
	var buf bytes.Buffer
	if err := tmpl.text.Execute(&buf, data); err != nil {
		return errors.Wrapf(err, "executing %s.txt", m.TemplateName)
	}
	m.TextContent = buf.String()

	if tmpl.html != nil {
		buf.Reset()
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "executing %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }

// loadTemplates parses every embedded template against its layout. Files starting with "_" are layouts.
func loadTemplates() {
	fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		templatesErr = errors.Wrap(err, "listing email templates")
		return
	}

	strict := Conf.Debug || Conf.TestMode
	templates = make(map[string]*emailTemplate)
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		layout := path.Join(emailTemplatesDir, "_base"+ext)

		entry, ok := templates[name]
		if !ok {
			entry = &emailTemplate{}
		}
		switch ext {
		case ".txt":
			entry.text, err = texttmpl.ParseFS(appfs.FS, layout, fp)
			if err == nil && strict {
				entry.text = entry.text.Option("missingkey=error")
			}
		case ".gohtml":
			entry.html, err = htmltmpl.ParseFS(appfs.FS, layout, fp)
			if err == nil && strict {
				entry.html = entry.html.Option("missingkey=error")
			}
		default:
			continue
		}
		if err != nil {
			log.Printf("%+v", errors.Wrapf(err, "parsing email template %s", fname))
			continue
		}
		templates[name] = entry
	}
}
