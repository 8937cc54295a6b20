package validation

import (
	"fmt"
	"strings"
)

// NumericRange checks that a numeric field falls within [Min, Max]. Missing
// values pass; presence is the job of STRUCTURE rules.
type NumericRange struct {
	Min float64
	Max float64
}

func (v *NumericRange) Evaluate(value any, vctx *Context) ValidationResult {
	if value == nil {
		return OK()
	}
	n, ok := asNumber(value)
	if !ok {
		return Fail(ValidationError{
			Type:     ErrTypeMismatch,
			Message:  fmt.Sprintf("expected a number, got %T", value),
			Value:    value,
			Expected: "number",
		})
	}
	if n < v.Min || n > v.Max {
		return Fail(ValidationError{
			Type:     ErrValueOutOfRange,
			Message:  fmt.Sprintf("value %v outside allowed range [%v, %v]", n, v.Min, v.Max),
			Value:    n,
			Expected: fmt.Sprintf("%v-%v", v.Min, v.Max),
		})
	}
	return OK()
}

// CategoryMembership checks a string field against a curated vocabulary from
// the validation context's cultural constraints. A miss is advisory by
// default; strict membership (Advisory=false) produces an error.
type CategoryMembership struct {
	Category string
	Advisory bool
}

func (v *CategoryMembership) Evaluate(value any, vctx *Context) ValidationResult {
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

	vocabulary := vctx.CulturalConstraints[v.Category]
	if len(vocabulary) == 0 {
		// No vocabulary loaded for this category; nothing to check against.
		return OK()
	}

	for _, term := range vocabulary {
		if strings.EqualFold(term, s) {
			return OK()
		}
	}

	err := ValidationError{
		Type:     ErrCulturalDataInconsistent,
		Message:  fmt.Sprintf("'%s' is not a known %s value", s, v.Category),
		Value:    s,
		Expected: v.Category + " vocabulary",
	}
	if v.Advisory {
		return Warn(err)
	}
	return Fail(err)
}

// seniorityKeywords maps job-title fragments to the seniority tiers they
// imply. Used for cross-field consistency between job_title and seniority.
var seniorityKeywords = map[string][]string{
	"chief":     {"C-level", "Founder"},
	"ceo":       {"C-level", "Founder"},
	"cto":       {"C-level"},
	"cfo":       {"C-level"},
	"vp":        {"VP"},
	"vice":      {"VP"},
	"director":  {"Director"},
	"head of":   {"Director", "VP"},
	"manager":   {"Manager", "Lead"},
	"lead":      {"Lead", "Senior"},
	"senior":    {"Senior", "Lead"},
	"junior":    {"Junior"},
	"intern":    {"Intern"},
	"founder":   {"Founder", "C-level"},
	"principal": {"Senior", "Lead"},
}

// TitleSeniorityConsistency checks that a company object's job_title and
// seniority fields do not contradict each other. Advisory only: titles are
// free text and the keyword map is deliberately loose.
type TitleSeniorityConsistency struct{}

func (v *TitleSeniorityConsistency) Evaluate(value any, vctx *Context) ValidationResult {
	company, ok := value.(map[string]any)
	if !ok {
		return OK()
	}
	title, _ := company["job_title"].(string)
	seniority, _ := company["seniority"].(string)
	if title == "" || seniority == "" {
		return OK()
	}

	titleLower := strings.ToLower(title)
	for keyword, tiers := range seniorityKeywords {
		if !strings.Contains(titleLower, keyword) {
			continue
		}
		for _, tier := range tiers {
			if strings.EqualFold(tier, seniority) {
				return OK()
			}
		}
		return Warn(ValidationError{
			Type:     ErrBusinessRuleViolation,
			Field:    "company.seniority",
			Message:  fmt.Sprintf("job title '%s' is inconsistent with seniority '%s'", title, seniority),
			Value:    seniority,
			Expected: strings.Join(tiers, " or "),
		})
	}
	// No keyword matched; nothing to assert.
	return OK()
}
