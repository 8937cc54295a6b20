// Package response parses raw LLM output into persona objects. The variant
// kind (basic vs enhanced) is decided here, at parse time.
package response

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"personacraft/backend/internal/model"
)

var fenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParsedPersonas carries both representations of the LLM output: the raw
// decoded maps the validation engine walks with dotted paths, and the typed
// variants returned to the client.
type ParsedPersonas struct {
	Raw      []map[string]any
	Variants []model.PersonaVariant
}

// Parse extracts persona objects from raw LLM text. Accepts a JSON array, a
// single object, or a {"personas": [...]} wrapper, optionally inside
// markdown fences.
func Parse(raw string) (*ParsedPersonas, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	rawMaps, err := decodeObjects(text)
	if err != nil {
		return nil, err
	}
	if len(rawMaps) == 0 {
		return nil, fmt.Errorf("no persona objects in response")
	}

	parsed := &ParsedPersonas{Raw: rawMaps}
	for _, m := range rawMaps {
		ensureID(m)
		variant, err := toVariant(m)
		if err != nil {
			return nil, err
		}
		parsed.Variants = append(parsed.Variants, variant)
	}
	return parsed, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if matches := fenceRegex.FindStringSubmatch(text); len(matches) > 1 {
		text = matches[1]
	}
	return strings.TrimSpace(text)
}

func decodeObjects(text string) ([]map[string]any, error) {
	// Array of personas is the requested shape.
	var list []map[string]any
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	// {"personas": [...]} wrapper.
	if wrapped, ok := obj["personas"].([]any); ok {
		var out []map[string]any
		for _, item := range wrapped {
			m, isMap := item.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("personas array contains a non-object entry")
			}
			out = append(out, m)
		}
		return out, nil
	}

	// Single persona object.
	return []map[string]any{obj}, nil
}

func ensureID(m map[string]any) {
	if id, _ := m["id"].(string); id == "" {
		m["id"] = uuid.New().String()
	}
}

// toVariant decides the variant kind from the decoded object, then decodes
// into the matching typed struct.
func toVariant(m map[string]any) (model.PersonaVariant, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return model.PersonaVariant{}, err
	}

	if _, enhanced := m["validation_metrics"]; enhanced {
		var p model.EnhancedPersona
		if err := json.Unmarshal(data, &p); err != nil {
			return model.PersonaVariant{}, fmt.Errorf("failed to decode enhanced persona: %w", err)
		}
		return model.NewEnhancedVariant(&p), nil
	}

	var p model.Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return model.PersonaVariant{}, fmt.Errorf("failed to decode persona: %w", err)
	}
	return model.NewBasicVariant(&p), nil
}

// MergeCultural overlays each persona's enrichment data onto its raw map so
// validation sees enriched output without re-encoding the whole persona.
// The raw maps keep their original shape: fields the LLM never emitted stay
// absent instead of reappearing as zero values.
func MergeCultural(raw []map[string]any, personas []model.Persona) error {
	for i := range personas {
		if i >= len(raw) || personas[i].Cultural == nil {
			continue
		}
		data, err := json.Marshal(personas[i].Cultural)
		if err != nil {
			return err
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		raw[i]["cultural"] = m
	}
	return nil
}
