package validation

import "fmt"

// RequiredFields checks that every configured dotted path is present and
// non-empty on the persona object. The rule's Field should be "" so the
// validator sees the whole persona.
type RequiredFields struct {
	Paths []string
}

func (v *RequiredFields) Evaluate(value any, vctx *Context) ValidationResult {
	persona, ok := value.(map[string]any)
	if !ok {
		return Fail(ValidationError{
			Type:    ErrStructureInvalid,
			Field:   "",
			Message: "persona is not a JSON object",
			Value:   value,
		})
	}

	result := OK()
	for _, path := range v.Paths {
		found, present := LookupPath(persona, path)
		if !present || isEmpty(found) {
			result.Errors = append(result.Errors, ValidationError{
				ID:      string(ErrRequiredFieldMissing) + ":" + path,
				Type:    ErrRequiredFieldMissing,
				Field:   path,
				Message: fmt.Sprintf("required field '%s' is missing or empty", path),
			})
		}
	}
	if len(result.Errors) > 0 {
		for i := range result.Errors {
			result.Errors[i].Severity = SeverityError
		}
		result.IsValid = false
		result.Score = 0
	}
	return result
}

// NestedObject checks that the rule's field resolves to a non-empty JSON
// object, e.g. the company block on B2B personas.
type NestedObject struct {
	RequiredKeys []string
}

func (v *NestedObject) Evaluate(value any, vctx *Context) ValidationResult {
	obj, ok := value.(map[string]any)
	if !ok || len(obj) == 0 {
		return Fail(ValidationError{
			Type:    ErrStructureInvalid,
			Message: "expected a non-empty object",
			Value:   value,
		})
	}

	result := OK()
	for _, key := range v.RequiredKeys {
		if found, present := obj[key]; !present || isEmpty(found) {
			result.Errors = append(result.Errors, ValidationError{
				ID:       string(ErrRequiredFieldMissing) + ":" + key,
				Type:     ErrRequiredFieldMissing,
				Field:    key,
				Message:  fmt.Sprintf("required key '%s' is missing or empty", key),
				Severity: SeverityError,
			})
		}
	}
	if len(result.Errors) > 0 {
		result.IsValid = false
		result.Score = 0
	}
	return result
}

// TypeOf checks that the field decodes to the expected JSON kind. Missing
// values pass; presence is the job of RequiredFields.
type TypeOf struct {
	Kind string // "string", "number", "array", "object", "bool"
}

func (v *TypeOf) Evaluate(value any, vctx *Context) ValidationResult {
	if value == nil {
		return OK()
	}
	matched := false
	switch v.Kind {
	case "string":
		_, matched = value.(string)
	case "number":
		_, matched = asNumber(value)
	case "array":
		_, matched = value.([]any)
	case "object":
		_, matched = value.(map[string]any)
	case "bool":
		_, matched = value.(bool)
	}
	if !matched {
		return Fail(ValidationError{
			Type:     ErrTypeMismatch,
			Message:  fmt.Sprintf("expected %s, got %T", v.Kind, value),
			Value:    value,
			Expected: v.Kind,
		})
	}
	return OK()
}
