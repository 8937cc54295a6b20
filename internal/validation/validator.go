package validation

import (
	"time"

	"personacraft/backend/internal/model"
)

// RuleType categorizes what aspect of a persona a rule checks.
type RuleType string

const (
	RuleStructure RuleType = "STRUCTURE"
	RuleContent   RuleType = "CONTENT"
	RuleFormat    RuleType = "FORMAT"
	RuleBusiness  RuleType = "BUSINESS"
)

// Severity indicates whether a failed check blocks acceptance.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// ErrorType is the validation error taxonomy.
type ErrorType string

const (
	ErrStructureInvalid         ErrorType = "STRUCTURE_INVALID"
	ErrRequiredFieldMissing     ErrorType = "REQUIRED_FIELD_MISSING"
	ErrFormatInvalid            ErrorType = "FORMAT_INVALID"
	ErrTypeMismatch             ErrorType = "TYPE_MISMATCH"
	ErrValueOutOfRange          ErrorType = "VALUE_OUT_OF_RANGE"
	ErrBusinessRuleViolation    ErrorType = "BUSINESS_RULE_VIOLATION"
	ErrCulturalDataInconsistent ErrorType = "CULTURAL_DATA_INCONSISTENT"
	ErrTemplateNotFound         ErrorType = "TEMPLATE_NOT_FOUND"
	ErrValidationTimeout        ErrorType = "VALIDATION_TIMEOUT"
)

// ValidationError is an immutable record of one failed rule evaluation.
type ValidationError struct {
	ID       string         `json:"id"`
	Type     ErrorType      `json:"type"`
	Field    string         `json:"field"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Value    any            `json:"value,omitempty"`
	Expected any            `json:"expectedValue,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// ResultMetadata describes how a validation pass executed.
type ResultMetadata struct {
	TemplateID      string        `json:"templateId"`
	TemplateVersion string        `json:"templateVersion"`
	ValidationTime  time.Duration `json:"validationTime"`
	RulesExecuted   int           `json:"rulesExecuted"`
	RulesSkipped    int           `json:"rulesSkipped"`
	Timestamp       time.Time     `json:"timestamp"`
}

// ValidationResult is the outcome of evaluating one validator or one full
// template pass. IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Score    float64           `json:"score"`
	Metadata ResultMetadata    `json:"metadata"`
}

// OK returns a passing validation result.
func OK() ValidationResult {
	return ValidationResult{IsValid: true, Score: 100}
}

// Fail returns a failing validation result carrying one error.
func Fail(err ValidationError) ValidationResult {
	err.Severity = SeverityError
	if err.ID == "" {
		err.ID = string(err.Type) + ":" + err.Field
	}
	return ValidationResult{IsValid: false, Errors: []ValidationError{err}, Score: 0}
}

// Warn returns a passing result carrying one advisory warning.
func Warn(err ValidationError) ValidationResult {
	err.Severity = SeverityWarning
	if err.ID == "" {
		err.ID = string(err.Type) + ":" + err.Field
	}
	return ValidationResult{IsValid: true, Warnings: []ValidationError{err}, Score: 80}
}

// Validator evaluates one value from a candidate persona. Implementations
// must be pure: no shared mutable state, safe for concurrent use.
type Validator interface {
	Evaluate(value any, vctx *Context) ValidationResult
}

// Rule binds a validator to a persona field. Immutable once registered in a
// template. Priority governs execution and reporting order, not gating.
type Rule struct {
	ID        string    `json:"id"`
	Type      RuleType  `json:"type"`
	Field     string    `json:"field"`
	Validator Validator `json:"-"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Required  bool      `json:"required"`
	Priority  int       `json:"priority"`
}

// RetryStrategy is the fallback policy attached to a template. Read-only.
type RetryStrategy struct {
	MaxRetries              int           `json:"maxRetries"`
	BackoffMultiplier       float64       `json:"backoffMultiplier"`
	RetryableErrors         []ErrorType   `json:"retryableErrors"`
	EnhancePromptOnRetry    bool          `json:"enhancePromptOnRetry"`
	FallbackAfterMaxRetries bool          `json:"fallbackAfterMaxRetries"`
	RetryDelay              time.Duration `json:"retryDelay"`
}

// IsRetryable reports whether the given error type is covered by the strategy.
func (s RetryStrategy) IsRetryable(t ErrorType) bool {
	for _, r := range s.RetryableErrors {
		if r == t {
			return true
		}
	}
	return false
}

// Template is a named, versioned, ordered set of rules bound to a persona
// type. Read-only after registration.
type Template struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	PersonaType model.PersonaType `json:"personaType"`
	Rules       []Rule            `json:"-"`
	Fallback    RetryStrategy     `json:"fallbackStrategy"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Context carries per-generation-attempt state through every rule evaluation.
// Created once per generation request; the orchestrator updates
// GenerationAttempt and PreviousErrors between retries.
type Context struct {
	RequestID           string
	PersonaType         model.PersonaType
	Brief               model.BriefFormData
	TemplateVars        map[string]string
	CulturalConstraints map[string][]string
	UserSignals         map[string]any
	GenerationAttempt   int
	PreviousErrors      []ValidationError
}
