// Package template holds the text template registry keyed by profession,
// visa type, and section, with wildcard fallback resolution.
package template

import (
	"sort"

	"go.uber.org/zap"
)

// Wildcard matches any profession or visa type in a template key.
const Wildcard = "ANY"

// Key identifies a registered template.
type Key struct {
	Profession string
	VisaType   string
	Section    string
}

// Registry resolves templates with documented precedence: an exact triple
// match wins, then the profession-specific template, then the visa-specific
// one, then empty. Profession always beats visa when both could apply; this
// is fixed, not configurable.
type Registry struct {
	templates map[Key]string
	logger    *zap.Logger
}

// NewRegistry creates a registry seeded with the default profession and visa
// templates.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{templates: make(map[Key]string), logger: logger}
	for profession, sections := range defaultProfessionTemplates {
		for section, tmpl := range sections {
			r.Add(profession, Wildcard, section, tmpl)
		}
	}
	for visaType, sections := range defaultVisaTemplates {
		for section, tmpl := range sections {
			r.Add(Wildcard, visaType, section, tmpl)
		}
	}
	return r
}

// Add registers or replaces a template.
func (r *Registry) Add(profession, visaType, section, template string) {
	r.templates[Key{Profession: profession, VisaType: visaType, Section: section}] = template
	r.logger.Debug("Registered template",
		zap.String("profession", profession),
		zap.String("visa_type", visaType),
		zap.String("section", section),
	)
}

// Get resolves a template for (profession, visaType, section). Returns the
// empty string when nothing matches.
func (r *Registry) Get(profession, visaType, section string) string {
	if t, ok := r.templates[Key{profession, visaType, section}]; ok {
		return t
	}
	if t, ok := r.templates[Key{profession, Wildcard, section}]; ok {
		return t
	}
	if t, ok := r.templates[Key{Wildcard, visaType, section}]; ok {
		return t
	}
	return ""
}

// Sections returns every section that has a template applicable to the given
// profession and visa type, sorted.
func (r *Registry) Sections(profession, visaType string) []string {
	set := make(map[string]struct{})
	for key := range r.templates {
		professionOK := key.Profession == profession || key.Profession == Wildcard
		visaOK := key.VisaType == visaType || key.VisaType == Wildcard
		if professionOK && visaOK {
			set[key.Section] = struct{}{}
		}
	}
	sections := make([]string, 0, len(set))
	for s := range set {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	return sections
}
