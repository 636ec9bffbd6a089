// Package playbook serves the static trading playbook.
package playbook

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed playbook.yaml
var defaultPlaybook []byte

// Playbook is the read-only strategy reference shown next to the journal.
type Playbook struct {
	Title    string    `yaml:"title" json:"title"`
	Subtitle string    `yaml:"subtitle" json:"subtitle"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Section is one navigable page of the playbook.
type Section struct {
	ID         string         `yaml:"id" json:"id"`
	Title      string         `yaml:"title" json:"title"`
	Accent     string         `yaml:"accent,omitempty" json:"accent,omitempty"`
	Window     string         `yaml:"window,omitempty" json:"window,omitempty"`
	Paragraphs []string       `yaml:"paragraphs,omitempty" json:"paragraphs,omitempty"`
	Image      string         `yaml:"image,omitempty" json:"image,omitempty"`
	Callouts   []Callout      `yaml:"callouts,omitempty" json:"callouts,omitempty"`
	Cards      []Entry        `yaml:"cards,omitempty" json:"cards,omitempty"`
	Checklist  []ChecklistRow `yaml:"checklist,omitempty" json:"checklist,omitempty"`
	Concepts   []Entry        `yaml:"concepts,omitempty" json:"concepts,omitempty"`
	Mistakes   []Entry        `yaml:"mistakes,omitempty" json:"mistakes,omitempty"`
	Routine    []RoutineItem  `yaml:"routine,omitempty" json:"routine,omitempty"`
}

// Entry is a labelled paragraph.
type Entry struct {
	Label  string `yaml:"label" json:"label"`
	Text   string `yaml:"text" json:"text"`
	Accent string `yaml:"accent,omitempty" json:"accent,omitempty"`
}

// Callout is a highlighted box of labelled points with an optional tip.
type Callout struct {
	Heading string  `yaml:"heading" json:"heading"`
	Points  []Entry `yaml:"points" json:"points"`
	Tip     *Entry  `yaml:"tip,omitempty" json:"tip,omitempty"`
}

// ChecklistRow is one step of the pre-entry checklist.
type ChecklistRow struct {
	Step   string   `yaml:"step" json:"step"`
	Accent string   `yaml:"accent" json:"accent"`
	Items  []string `yaml:"items" json:"items"`
}

// RoutineItem is one slot of the daily routine.
type RoutineItem struct {
	Time  string `yaml:"time" json:"time"`
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
}

// Load parses the embedded playbook.
func Load() (*Playbook, error) {
	return Parse(defaultPlaybook)
}

// Parse decodes a playbook document and checks that it is well formed.
func Parse(data []byte) (*Playbook, error) {
	var p Playbook
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse playbook: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate requires at least one section and unique, non-empty ids.
func (p *Playbook) Validate() error {
	if len(p.Sections) == 0 {
		return errors.New("playbook has no sections")
	}
	seen := make(map[string]bool, len(p.Sections))
	for i, s := range p.Sections {
		if s.ID == "" {
			return fmt.Errorf("playbook section %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate playbook section id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Section returns the section with the given id.
func (p *Playbook) Section(id string) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// IDs returns the section ids in display order.
func (p *Playbook) IDs() []string {
	ids := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		ids[i] = s.ID
	}
	return ids
}
