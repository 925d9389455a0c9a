// Package report turns a matched image into the links and ready-to-send texts
// a person needs to get it taken down.
package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed actions.yaml
var defaultCatalog []byte

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	urlRemovalBase = "https://www.google.com/webmasters/tools/url-removal"
	unknownHash    = "unknown"
	defaultSender  = "[Your Name]"
)

var ErrEmptyLocator = errors.New("image url is required")

// Catalog is the YAML description of the removal steps offered for every match.
type Catalog struct {
	Priority            string        `yaml:"priority"`
	Steps               []CatalogStep `yaml:"steps"`
	AdditionalResources []string      `yaml:"additional_resources"`
}

// CatalogStep describes one step. Link is an inline template, EmailTemplate and
// Template name files under templates/.
type CatalogStep struct {
	Action        string `yaml:"action"`
	Description   string `yaml:"description"`
	Link          string `yaml:"link"`
	EmailTemplate string `yaml:"email_template"`
	Template      string `yaml:"template"`
	Time          string `yaml:"time"`
	Effectiveness string `yaml:"effectiveness"`
}

// ActionPlan is the ordered list of things to do about one image.
type ActionPlan struct {
	Priority            string       `json:"priority"`
	Steps               []ActionStep `json:"steps"`
	AdditionalResources []string     `json:"additional_resources"`
}

type ActionStep struct {
	Step          int    `json:"step"`
	Action        string `json:"action"`
	Description   string `json:"description"`
	Link          string `json:"link,omitempty"`
	EmailTemplate string `json:"email_template,omitempty"`
	Template      string `json:"template,omitempty"`
	Time          string `json:"time"`
	Effectiveness string `json:"effectiveness"`
}

// templateData is what every link and text template sees.
type templateData struct {
	Locator string
	Hash    string
	Sender  string
}

// Builder renders action plans from a parsed catalog.
type Builder struct {
	catalog Catalog
	links   []*template.Template // per step, nil when the step has no link
	texts   *template.Template
}

// NewBuilder returns a builder for the embedded default catalog.
func NewBuilder() (*Builder, error) {
	return NewBuilderFromYAML(defaultCatalog)
}

// NewBuilderFromYAML parses a catalog and checks that every template it names exists.
func NewBuilderFromYAML(data []byte) (*Builder, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse action catalog: %w", err)
	}
	if len(catalog.Steps) == 0 {
		return nil, errors.New("action catalog has no steps")
	}

	funcMap := template.FuncMap{
		"queryEscape": url.QueryEscape,
		"pathEscape":  url.PathEscape,
	}
	texts, err := template.New("texts").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	b := &Builder{catalog: catalog, texts: texts, links: make([]*template.Template, len(catalog.Steps))}
	for i, step := range catalog.Steps {
		if step.Link != "" {
			tmpl, err := template.New(fmt.Sprintf("link-%d", i+1)).Funcs(funcMap).Parse(step.Link)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): invalid link: %w", i+1, step.Action, err)
			}
			b.links[i] = tmpl
		}
		for _, name := range []string{step.EmailTemplate, step.Template} {
			if name != "" && texts.Lookup(name) == nil {
				return nil, fmt.Errorf("step %d (%s): unknown template %q", i+1, step.Action, name)
			}
		}
	}
	return b, nil
}

// Build renders the action plan for a matched image. A blank hash is rendered as "unknown".
func (b *Builder) Build(locator, contentHash string) (*ActionPlan, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrEmptyLocator
	}
	data := templateData{Locator: locator, Hash: strings.TrimSpace(contentHash), Sender: defaultSender}
	if data.Hash == "" {
		data.Hash = unknownHash
	}

	plan := &ActionPlan{
		Priority:            b.catalog.Priority,
		Steps:               make([]ActionStep, 0, len(b.catalog.Steps)),
		AdditionalResources: append([]string{}, b.catalog.AdditionalResources...),
	}
	for i, cs := range b.catalog.Steps {
		step := ActionStep{
			Step:          i + 1,
			Action:        cs.Action,
			Description:   cs.Description,
			Time:          cs.Time,
			Effectiveness: cs.Effectiveness,
		}
		var err error
		if b.links[i] != nil {
			if step.Link, err = render(b.links[i], data); err != nil {
				return nil, err
			}
		}
		if cs.EmailTemplate != "" {
			if step.EmailTemplate, err = render(b.texts.Lookup(cs.EmailTemplate), data); err != nil {
				return nil, err
			}
		}
		if cs.Template != "" {
			if step.Template, err = render(b.texts.Lookup(cs.Template), data); err != nil {
				return nil, err
			}
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, nil
}

// ReportLink returns the pre-filled Google URL removal form for an image.
func ReportLink(locator string) string {
	return urlRemovalBase + "?" + url.Values{"url": {strings.TrimSpace(locator)}}.Encode()
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
