package events

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// MessageTemplateEngine renders event messages.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[Name]*template.Template
	sources   map[Name]string
}

var defaultTemplates = map[Name]string{
	Response:             `{{.Method}} {{.URL}} returned {{.Status}}{{if .Duration}} in {{.Duration}}{{end}}{{if .Error}}: {{.Error}}{{end}}`,
	Authenticated:        `{{if .Error}}Authentication with the {{.Flow}} flow failed: {{.Error}}{{else}}Authenticated with the {{.Flow}} flow{{with .Attributes.instance_url}} against {{.}}{{end}}{{end}}`,
	TokenRefreshed:       `{{if .Error}}Token refresh by the {{.Flow}} flow failed: {{.Error}}{{else}}Access token refreshed by the {{.Flow}} flow{{end}}`,
	TokenRevoked:         `Token revoked{{with .Attributes.revoked_at}} at {{.}}{{end}}`,
	AuthenticateRedirect: `Redirecting to {{.URL | trunc 120}} for {{.Flow}} authorization`,
}

// NewMessageTemplateEngine creates an engine loaded with the default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	e := &MessageTemplateEngine{
		templates: make(map[Name]*template.Template),
		sources:   make(map[Name]string),
	}
	for name, src := range defaultTemplates {
		if err := e.SetTemplate(name, src); err != nil {
			panic(fmt.Sprintf("invalid default template for %s: %v", name, err))
		}
	}
	return e
}

// Render generates the message for name. Unknown names and template
// failures fall back to a generic message.
func (e *MessageTemplateEngine) Render(name Name, data Data) string {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("Event: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Event: %s (message unavailable: %v)", name, err)
	}
	return buf.String()
}

// SetTemplate replaces the message template for name.
func (e *MessageTemplateEngine) SetTemplate(name Name, src string) error {
	tmpl, err := template.New(string(name)).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(src)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", name, err)
	}

	e.mu.Lock()
	e.templates[name] = tmpl
	e.sources[name] = src
	e.mu.Unlock()
	return nil
}

// GetTemplate returns the template source for name.
func (e *MessageTemplateEngine) GetTemplate(name Name) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, ok := e.sources[name]
	return src, ok
}
