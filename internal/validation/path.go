package validation

import "strings"

// LookupPath resolves a dotted field path ("demographics.age") against a
// decoded persona object. Returns nil and false when any segment is absent.
func LookupPath(persona map[string]any, path string) (any, bool) {
	if path == "" {
		return persona, true
	}

	current := any(persona)
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// isEmpty reports whether a value counts as "not populated" for presence and
// completeness checks.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// asNumber coerces the numeric encodings json.Unmarshal can produce.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
