package alerts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// MessageTemplate is a subject/body pair in text/template syntax.
type MessageTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// TemplateSet holds one template per budget-action outcome.
type TemplateSet struct {
	Stopped    MessageTemplate `yaml:"stopped"`
	Continuing MessageTemplate `yaml:"continuing"`
	Default    MessageTemplate `yaml:"default"`
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Composer renders alert subjects and bodies.
type Composer struct {
	stopped    compiled
	continuing compiled
	fallback   compiled
}

// DefaultComposer returns a composer using the embedded templates.
func DefaultComposer() *Composer {
	c, err := LoadTemplatesFromBytes(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("embedded templates: %v", err))
	}
	return c
}

// LoadTemplates reads a YAML template file. An empty path returns the
// embedded defaults. Sections missing from the file keep their defaults.
func LoadTemplates(path string) (*Composer, error) {
	if path == "" {
		return DefaultComposer(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file %s: %w", path, err)
	}
	return LoadTemplatesFromBytes(data)
}

// LoadTemplatesFromBytes parses YAML template data.
func LoadTemplatesFromBytes(data []byte) (*Composer, error) {
	var set TemplateSet
	if err := yaml.Unmarshal(defaultTemplates, &set); err != nil {
		return nil, fmt.Errorf("parse default templates: %w", err)
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var c Composer
	var err error
	if c.stopped, err = compile("stopped", set.Stopped); err != nil {
		return nil, err
	}
	if c.continuing, err = compile("continuing", set.Continuing); err != nil {
		return nil, err
	}
	if c.fallback, err = compile("default", set.Default); err != nil {
		return nil, err
	}
	return &c, nil
}

func compile(name string, mt MessageTemplate) (compiled, error) {
	if strings.TrimSpace(mt.Subject) == "" || strings.TrimSpace(mt.Body) == "" {
		return compiled{}, fmt.Errorf("template %s: subject and body are required", name)
	}
	subject, err := template.New(name + ".subject").Option("missingkey=error").Parse(mt.Subject)
	if err != nil {
		return compiled{}, fmt.Errorf("template %s subject: %w", name, err)
	}
	body, err := template.New(name + ".body").Option("missingkey=error").Parse(mt.Body)
	if err != nil {
		return compiled{}, fmt.Errorf("template %s body: %w", name, err)
	}
	return compiled{subject: subject, body: body}, nil
}

// Compose fills alert.Subject and alert.Message for the alert's budget action.
func (c *Composer) Compose(alert Alert) (Alert, error) {
	t := c.fallback
	switch {
	case alert.Action.Stops():
		t = c.stopped
	case alert.Action == model.ActionNone:
		t = c.continuing
	}

	var subject, body strings.Builder
	if err := t.subject.Execute(&subject, alert); err != nil {
		return alert, fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, alert); err != nil {
		return alert, fmt.Errorf("render body: %w", err)
	}

	alert.Subject = subject.String()
	alert.Message = body.String()
	return alert, nil
}
