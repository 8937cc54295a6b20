package validation

import (
	"fmt"
	"regexp"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{6,19}$`)
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Pattern checks a string field against a compiled regular expression.
// Missing values pass; presence is the job of STRUCTURE rules.
type Pattern struct {
	Regex *regexp.Regexp
	Label string // human-readable format name for messages
}

// EmailFormat builds a Pattern for email addresses.
func EmailFormat() *Pattern { return &Pattern{Regex: emailRegex, Label: "email"} }

// PhoneFormat builds a Pattern for phone numbers.
func PhoneFormat() *Pattern { return &Pattern{Regex: phoneRegex, Label: "phone"} }

// DateFormat builds a Pattern for ISO dates (YYYY-MM-DD).
func DateFormat() *Pattern { return &Pattern{Regex: dateRegex, Label: "date"} }

func (v *Pattern) Evaluate(value any, vctx *Context) ValidationResult {
	if value == nil {
		return OK()
	}
	s, ok := value.(string)
	if !ok {
		return Fail(ValidationError{
			Type:     ErrTypeMismatch,
			Message:  fmt.Sprintf("expected a string, got %T", value),
			Value:    value,
			Expected: "string",
		})
	}
	if s == "" {
		return OK()
	}
	if !v.Regex.MatchString(s) {
		return Fail(ValidationError{
			Type:     ErrFormatInvalid,
			Message:  fmt.Sprintf("'%s' is not a valid %s", s, v.Label),
			Value:    s,
			Expected: v.Label + " format",
		})
	}
	return OK()
}

// ArrayShape checks that an array field has the right length bounds, item
// type and (optionally) unique items.
type ArrayShape struct {
	MinLen   int
	MaxLen   int // 0 means unbounded
	ItemKind string
	Unique   bool
}

func (v *ArrayShape) Evaluate(value any, vctx *Context) ValidationResult {
	items, ok := value.([]any)
	if !ok {
		return Fail(ValidationError{
			Type:     ErrTypeMismatch,
			Message:  fmt.Sprintf("expected an array, got %T", value),
			Value:    value,
			Expected: "array",
		})
	}

	if len(items) < v.MinLen {
		return Fail(ValidationError{
			Type:     ErrFormatInvalid,
			Message:  fmt.Sprintf("array has %d items, at least %d required", len(items), v.MinLen),
			Value:    len(items),
			Expected: fmt.Sprintf(">=%d items", v.MinLen),
		})
	}
	if v.MaxLen > 0 && len(items) > v.MaxLen {
		return Fail(ValidationError{
			Type:     ErrFormatInvalid,
			Message:  fmt.Sprintf("array has %d items, at most %d allowed", len(items), v.MaxLen),
			Value:    len(items),
			Expected: fmt.Sprintf("<=%d items", v.MaxLen),
		})
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if v.ItemKind == "string" {
			s, isString := item.(string)
			if !isString {
				return Fail(ValidationError{
					Type:     ErrTypeMismatch,
					Message:  fmt.Sprintf("item %d is %T, expected string", i, item),
					Value:    item,
					Expected: "string",
				})
			}
			if v.Unique {
				if seen[s] {
					return Fail(ValidationError{
						Type:    ErrFormatInvalid,
						Message: fmt.Sprintf("duplicate item '%s'", s),
						Value:   s,
					})
				}
				seen[s] = true
			}
		}
	}
	return OK()
}
