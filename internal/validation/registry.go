package validation

import (
	"fmt"

	"personacraft/backend/internal/model"
)

// Registry holds validation templates keyed by id and persona type.
// Templates are inserted once at startup and never mutated afterwards, so
// lookups need no locking.
type Registry struct {
	byID   map[string]*Template
	byType map[model.PersonaType]*Template
	order  []string // registration order, for listing
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Template),
		byType: make(map[model.PersonaType]*Template),
	}
}

// Register inserts a template. Duplicate ids are a wiring bug and rejected.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if _, exists := r.byID[t.ID]; exists {
		return fmt.Errorf("template %q already registered", t.ID)
	}
	seen := make(map[string]bool, len(t.Rules))
	for _, rule := range t.Rules {
		if seen[rule.ID] {
			return fmt.Errorf("template %q has duplicate rule id %q", t.ID, rule.ID)
		}
		seen[rule.ID] = true
	}
	r.byID[t.ID] = t
	r.byType[t.PersonaType] = t
	r.order = append(r.order, t.ID)
	return nil
}

// GetByID returns the template with the given id, or nil.
func (r *Registry) GetByID(id string) *Template {
	return r.byID[id]
}

// GetByPersonaType returns the template registered for the persona type, or nil.
func (r *Registry) GetByPersonaType(t model.PersonaType) *Template {
	return r.byType[t]
}

// All returns templates in registration order.
func (r *Registry) All() []*Template {
	templates := make([]*Template, 0, len(r.order))
	for _, id := range r.order {
		templates = append(templates, r.byID[id])
	}
	return templates
}
