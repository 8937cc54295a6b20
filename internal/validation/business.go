package validation

import (
	"fmt"
	"sort"
	"strings"
)

// MinItems checks that an array field carries at least Min entries, reported
// as a business-rule violation (e.g. pain points count >= 1).
type MinItems struct {
	Min int
}

func (v *MinItems) Evaluate(value any, vctx *Context) ValidationResult {
	items, ok := value.([]any)
	if !ok {
		return Fail(ValidationError{
			Type:     ErrBusinessRuleViolation,
			Message:  fmt.Sprintf("expected a list, got %T", value),
			Value:    value,
			Expected: fmt.Sprintf(">=%d items", v.Min),
		})
	}
	if len(items) < v.Min {
		return Fail(ValidationError{
			Type:     ErrBusinessRuleViolation,
			Message:  fmt.Sprintf("found %d items, at least %d required", len(items), v.Min),
			Value:    len(items),
			Expected: fmt.Sprintf(">=%d items", v.Min),
		})
	}
	return OK()
}

// BuyingBehaviorPresent checks that the buying_behavior block carries the
// sub-fields a business persona needs to be actionable.
type BuyingBehaviorPresent struct{}

func (v *BuyingBehaviorPresent) Evaluate(value any, vctx *Context) ValidationResult {
	behavior, ok := value.(map[string]any)
	if !ok || len(behavior) == 0 {
		return Fail(ValidationError{
			Type:    ErrBusinessRuleViolation,
			Message: "buying_behavior block is missing",
			Value:   value,
		})
	}

	factors, _ := behavior["decision_factors"].([]any)
	if len(factors) == 0 {
		return Fail(ValidationError{
			Type:     ErrBusinessRuleViolation,
			Field:    "buying_behavior.decision_factors",
			Message:  "at least one decision factor is required",
			Expected: ">=1 decision factors",
		})
	}
	if budget, _ := behavior["budget"].(string); budget == "" {
		return Warn(ValidationError{
			Type:    ErrBusinessRuleViolation,
			Field:   "buying_behavior.budget",
			Message: "budget is not specified",
		})
	}
	return OK()
}

// KPIWellFormed checks that each KPI entry reads like a metric: non-empty and
// containing something measurable (a digit, percent sign, or known metric
// keyword).
type KPIWellFormed struct{}

var kpiKeywords = []string{"rate", "growth", "revenue", "retention", "conversion", "nps", "churn", "roi", "cac", "ltv"}

func (v *KPIWellFormed) Evaluate(value any, vctx *Context) ValidationResult {
	if value == nil {
		return OK()
	}
	items, ok := value.([]any)
	if !ok {
		return Fail(ValidationError{
			Type:     ErrTypeMismatch,
			Message:  fmt.Sprintf("expected an array, got %T", value),
			Value:    value,
			Expected: "array",
		})
	}

	for i, item := range items {
		s, isString := item.(string)
		if !isString || strings.TrimSpace(s) == "" {
			return Fail(ValidationError{
				Type:    ErrBusinessRuleViolation,
				Message: fmt.Sprintf("KPI %d is empty or not a string", i),
				Value:   item,
			})
		}
		if !looksLikeMetric(s) {
			return Warn(ValidationError{
				Type:    ErrBusinessRuleViolation,
				Message: fmt.Sprintf("KPI '%s' does not reference a measurable quantity", s),
				Value:   s,
			})
		}
	}
	return OK()
}

func looksLikeMetric(s string) bool {
	lower := strings.ToLower(s)
	if strings.ContainsAny(lower, "0123456789%") {
		return true
	}
	for _, kw := range kpiKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Completeness scores the persona as a weighted fraction of populated
// expected fields and warns below the threshold. Advisory: completeness
// shapes the score, it never blocks acceptance.
type Completeness struct {
	Weights   map[string]float64 // dotted path -> weight
	Threshold float64            // 0..1
}

func (v *Completeness) Evaluate(value any, vctx *Context) ValidationResult {
	persona, ok := value.(map[string]any)
	if !ok {
		return OK()
	}

	var total, populated float64
	var missing []string
	for path, weight := range v.Weights {
		total += weight
		if found, present := LookupPath(persona, path); present && !isEmpty(found) {
			populated += weight
		} else {
			missing = append(missing, path)
		}
	}
	if total == 0 {
		return OK()
	}

	fraction := populated / total
	if fraction < v.Threshold {
		sort.Strings(missing)
		return Warn(ValidationError{
			Type:     ErrBusinessRuleViolation,
			Message:  fmt.Sprintf("persona is %.0f%% complete (threshold %.0f%%), missing: %s", fraction*100, v.Threshold*100, strings.Join(missing, ", ")),
			Value:    fraction,
			Expected: v.Threshold,
		})
	}
	return OK()
}
