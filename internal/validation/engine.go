package validation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine executes validation templates against candidate persona objects.
type Engine struct {
	registry    *Registry
	ruleTimeout time.Duration
}

// NewEngine creates a template engine. ruleTimeout bounds each individual
// rule evaluation; a rule that exceeds it is converted into a synthetic
// timeout error instead of hanging the pass.
func NewEngine(registry *Registry, ruleTimeout time.Duration) *Engine {
	if ruleTimeout <= 0 {
		ruleTimeout = 5 * time.Second
	}
	return &Engine{registry: registry, ruleTimeout: ruleTimeout}
}

// ValidateResponse runs every rule of the template against the persona
// object. Individual rule failures never abort the pass; they become
// ValidationError records. A missing template yields a zero-score invalid
// result with a single TEMPLATE_NOT_FOUND error.
func (e *Engine) ValidateResponse(ctx context.Context, persona map[string]any, templateID string, vctx *Context) ValidationResult {
	start := time.Now()

	tmpl := e.registry.GetByID(templateID)
	if tmpl == nil {
		log.Printf("[Engine] Template %q not found", templateID)
		return systemFailure(templateID, ValidationError{
			ID:       string(ErrTemplateNotFound) + ":" + templateID,
			Type:     ErrTemplateNotFound,
			Field:    "template",
			Message:  fmt.Sprintf("validation template %q is not registered", templateID),
			Severity: SeverityError,
		})
	}

	rules := make([]Rule, len(tmpl.Rules))
	copy(rules, tmpl.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	merged := ValidationResult{IsValid: true}
	var scoreSum float64
	executed, skipped := 0, 0

	for i, rule := range rules {
		if ctx.Err() != nil {
			skipped = len(rules) - i
			break
		}

		value, _ := LookupPath(persona, rule.Field)
		result := e.runRule(ctx, rule, value, vctx)
		executed++
		scoreSum += result.Score

		merged.Errors = append(merged.Errors, result.Errors...)
		merged.Warnings = append(merged.Warnings, result.Warnings...)
		if !result.IsValid {
			merged.IsValid = false
		}
	}

	if executed > 0 {
		merged.Score = scoreSum / float64(executed)
	}
	merged.IsValid = len(merged.Errors) == 0
	if merged.IsValid && merged.Score < 80 {
		// Warning-only results never drop below the floor.
		merged.Score = 80
	}

	merged.Metadata = ResultMetadata{
		TemplateID:      tmpl.ID,
		TemplateVersion: tmpl.Version,
		ValidationTime:  time.Since(start),
		RulesExecuted:   executed,
		RulesSkipped:    skipped,
		Timestamp:       time.Now().UTC(),
	}

	log.Printf("[Engine] %s: valid=%v score=%.0f errors=%d warnings=%d (%v)",
		tmpl.ID, merged.IsValid, merged.Score, len(merged.Errors), len(merged.Warnings), merged.Metadata.ValidationTime)
	return merged
}

// runRule evaluates one rule with a timeout and panic recovery. A validator
// that panics or times out produces a synthetic error classified from its
// failure message.
func (e *Engine) runRule(ctx context.Context, rule Rule, value any, vctx *Context) ValidationResult {
	start := time.Now()
	done := make(chan ValidationResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("validator panicked: %v", r)
				log.Printf("[Engine] Rule %s: %s", rule.ID, msg)
				done <- Fail(ValidationError{
					ID:      rule.ID + ":panic",
					Type:    classifyFailure(msg),
					Field:   rule.Field,
					Message: msg,
				})
			}
		}()
		done <- rule.Validator.Evaluate(value, vctx)
	}()

	var result ValidationResult
	select {
	case result = <-done:
	case <-time.After(e.ruleTimeout):
		log.Printf("[Engine] Rule %s timed out after %v", rule.ID, e.ruleTimeout)
		result = Fail(ValidationError{
			ID:      rule.ID + ":timeout",
			Type:    ErrValidationTimeout,
			Field:   rule.Field,
			Message: fmt.Sprintf("rule %s exceeded %v", rule.ID, e.ruleTimeout),
		})
	case <-ctx.Done():
		result = Fail(ValidationError{
			ID:      rule.ID + ":cancelled",
			Type:    ErrValidationTimeout,
			Field:   rule.Field,
			Message: "validation cancelled",
		})
	}

	// Fill in what the validator could not know about itself.
	for i := range result.Errors {
		if result.Errors[i].Field == "" {
			result.Errors[i].Field = rule.Field
		}
	}
	for i := range result.Warnings {
		if result.Warnings[i].Field == "" {
			result.Warnings[i].Field = rule.Field
		}
	}
	result.Metadata.ValidationTime = time.Since(start)
	return result
}

// classifyFailure maps an unexpected validator failure onto the taxonomy by
// inspecting its message.
func classifyFailure(msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return ErrValidationTimeout
	case strings.Contains(lower, "missing") || strings.Contains(lower, "required"):
		return ErrRequiredFieldMissing
	default:
		return ErrStructureInvalid
	}
}

// systemFailure builds the well-formed zero-score result used for
// template-not-found and other system-level validation failures.
func systemFailure(templateID string, err ValidationError) ValidationResult {
	return ValidationResult{
		IsValid: false,
		Errors:  []ValidationError{err},
		Score:   0,
		Metadata: ResultMetadata{
			TemplateID: templateID,
			Timestamp:  time.Now().UTC(),
		},
	}
}

// BatchResult aggregates independent per-persona validations.
type BatchResult struct {
	Results            []ValidationResult `json:"results"`
	ErrorsByType       map[ErrorType]int  `json:"errorsByType"`
	SuccessfulPersonas int                `json:"successfulPersonas"`
	IsValid            bool               `json:"isValid"`
	Score              float64            `json:"score"`
}

// ValidateBatch validates each persona independently and concurrently. No
// state is shared between the per-persona passes; result order matches input
// order.
func (e *Engine) ValidateBatch(ctx context.Context, personas []map[string]any, templateID string, vctx *Context) BatchResult {
	results := make([]ValidationResult, len(personas))

	g, gctx := errgroup.WithContext(ctx)
	for i, persona := range personas {
		g.Go(func() error {
			results[i] = e.ValidateResponse(gctx, persona, templateID, vctx)
			return nil
		})
	}
	// Goroutines never return errors; failures are data in the results.
	_ = g.Wait()

	batch := BatchResult{
		Results:      results,
		ErrorsByType: make(map[ErrorType]int),
		IsValid:      true,
	}
	var scoreSum float64
	for _, r := range results {
		scoreSum += r.Score
		if r.IsValid {
			batch.SuccessfulPersonas++
		} else {
			batch.IsValid = false
		}
		for _, verr := range r.Errors {
			batch.ErrorsByType[verr.Type]++
		}
	}
	if len(results) > 0 {
		batch.Score = scoreSum / float64(len(results))
	}
	return batch
}

// Errors flattens every error across the batch, preserving persona order.
func (b BatchResult) Errors() []ValidationError {
	var all []ValidationError
	for _, r := range b.Results {
		all = append(all, r.Errors...)
	}
	return all
}

// Warnings flattens every warning across the batch.
func (b BatchResult) Warnings() []ValidationError {
	var all []ValidationError
	for _, r := range b.Results {
		all = append(all, r.Warnings...)
	}
	return all
}
