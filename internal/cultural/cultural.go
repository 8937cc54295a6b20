// Package cultural loads the curated vocabulary data used by content
// validators and the prompt builder.
package cultural

import (
	"encoding/json"
	"fmt"
	"os"
)

// Vocabularies holds the curated category lists a persona's fields are
// checked against.
type Vocabularies struct {
	Industries      []string `json:"industries"`
	SeniorityLevels []string `json:"seniority_levels"`
	CompanySizes    []string `json:"company_sizes"`
	Music           []string `json:"music"`
	Brands          []string `json:"brands"`
	Restaurants     []string `json:"restaurants"`
	Values          []string `json:"values"`
}

// Load reads the vocabulary data file.
func Load(path string) (*Vocabularies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cultural data file: %w", err)
	}

	var v Vocabularies
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse cultural data JSON: %w", err)
	}

	return &v, nil
}

// Constraints converts the vocabularies into the category->terms map carried
// by the validation context.
func (v *Vocabularies) Constraints() map[string][]string {
	return map[string][]string{
		"industries":       v.Industries,
		"seniority_levels": v.SeniorityLevels,
		"company_sizes":    v.CompanySizes,
		"music":            v.Music,
		"brands":           v.Brands,
		"restaurants":      v.Restaurants,
		"values":           v.Values,
	}
}
