package io

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/intake/internal/model"
)

//go:embed default.yaml
var defaultTemplate []byte

// DefaultTemplate returns the embedded business intake template.
func DefaultTemplate() (model.Template, error) {
	t, err := decodeTemplate(defaultTemplate)
	if err != nil {
		return model.Template{}, fmt.Errorf("invalid default template: %w", err)
	}
	return t, nil
}

// TemplateYAMLRepository loads intake templates from YAML files.
type TemplateYAMLRepository struct {
	fs fs.FS
}

// NewTemplateYAMLRepository creates a new YAML template repository.
func NewTemplateYAMLRepository(filesystem fs.FS) *TemplateYAMLRepository {
	return &TemplateYAMLRepository{fs: filesystem}
}

// GetTemplate loads a template from a YAML file and returns a validated domain model.
func (r *TemplateYAMLRepository) GetTemplate(ctx context.Context, path string) (model.Template, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Template{}, fmt.Errorf("reading template file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Template{}, ctx.Err()
	}

	return decodeTemplate(data)
}

func decodeTemplate(data []byte) (model.Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return model.Template{}, fmt.Errorf("parsing YAML: %w", err)
	}

	t := tpl.toModel()
	if err := t.Validate(); err != nil {
		return model.Template{}, fmt.Errorf("invalid template: %w", err)
	}

	return t, nil
}

// Template represents the YAML structure of an intake template.
type Template struct {
	Modules    []ModuleTemplate `yaml:"modules"`
	Milestones []Milestone      `yaml:"milestones"`
}

// ModuleTemplate represents the YAML structure of a module.
type ModuleTemplate struct {
	ID       string            `yaml:"id"`
	Title    string            `yaml:"title"`
	Sections []SectionTemplate `yaml:"sections"`
}

// SectionTemplate represents the YAML structure of a section.
type SectionTemplate struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Milestone represents the YAML structure of a milestone rule.
type Milestone struct {
	ID        string `yaml:"id"`
	Kind      string `yaml:"kind"`
	Module    string `yaml:"module,omitempty"`
	Threshold int    `yaml:"threshold,omitempty"`
}

func (t Template) toModel() model.Template {
	res := model.Template{}

	for _, m := range t.Modules {
		mt := model.ModuleTemplate{ID: m.ID, Title: m.Title}
		for _, s := range m.Sections {
			mt.Sections = append(mt.Sections, model.SectionTemplate{ID: s.ID, Title: s.Title})
		}
		res.Modules = append(res.Modules, mt)
	}

	for _, m := range t.Milestones {
		res.Milestones = append(res.Milestones, model.MilestoneRule{
			ID:        m.ID,
			Kind:      model.MilestoneKind(m.Kind),
			ModuleID:  m.Module,
			Threshold: m.Threshold,
		})
	}

	return res
}
