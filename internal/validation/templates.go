package validation

import (
	"time"

	"personacraft/backend/internal/model"
)

// Template ids, also used by the retry manager's de-escalation map.
const (
	TemplateSimpleID   = "simple-persona-v1"
	TemplateStandardID = "standard-persona-v1"
	TemplateB2BID      = "b2b-persona-v1"
)

// TemplateIDForType maps a persona type to its current template id.
func TemplateIDForType(t model.PersonaType) string {
	switch t {
	case model.PersonaTypeB2B:
		return TemplateB2BID
	case model.PersonaTypeStandard:
		return TemplateStandardID
	default:
		return TemplateSimpleID
	}
}

// baseRetryable are the error types every tier retries on.
var baseRetryable = []ErrorType{
	ErrStructureInvalid,
	ErrRequiredFieldMissing,
	ErrFormatInvalid,
	ErrTypeMismatch,
	ErrValueOutOfRange,
}

// RegisterDefaults registers the built-in templates in escalation fallback
// order: simple, then standard, then b2b.
func RegisterDefaults(r *Registry) error {
	for _, t := range []*Template{simpleTemplate(), standardTemplate(), b2bTemplate()} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// simpleTemplate is the most forgiving tier and the escalation floor: only
// identity and a plausible age are required.
func simpleTemplate() *Template {
	return &Template{
		ID:          TemplateSimpleID,
		Name:        "Simple persona",
		Version:     "1",
		PersonaType: model.PersonaTypeSimple,
		Rules: []Rule{
			{
				ID:        "simple-required",
				Type:      RuleStructure,
				Field:     "",
				Validator: &RequiredFields{Paths: []string{"name", "demographics", "demographics.age"}},
				Severity:  SeverityError,
				Message:   "persona must carry a name and demographics",
				Required:  true,
				Priority:  10,
			},
			{
				ID:        "simple-age-range",
				Type:      RuleContent,
				Field:     "demographics.age",
				Validator: &NumericRange{Min: 18, Max: 80},
				Severity:  SeverityError,
				Message:   "age must be between 18 and 80",
				Required:  true,
				Priority:  20,
			},
		},
		Fallback: RetryStrategy{
			MaxRetries:              2,
			BackoffMultiplier:       2,
			RetryableErrors:         baseRetryable,
			EnhancePromptOnRetry:    true,
			FallbackAfterMaxRetries: false,
			RetryDelay:              time.Second,
		},
		Metadata: map[string]string{"tier": "simple"},
	}
}

func standardTemplate() *Template {
	return &Template{
		ID:          TemplateStandardID,
		Name:        "Standard persona",
		Version:     "1",
		PersonaType: model.PersonaTypeStandard,
		Rules: []Rule{
			{
				ID:        "std-required",
				Type:      RuleStructure,
				Field:     "",
				Validator: &RequiredFields{Paths: []string{"name", "summary", "demographics", "demographics.age", "psychographics"}},
				Severity:  SeverityError,
				Message:   "persona must carry name, summary, demographics and psychographics",
				Required:  true,
				Priority:  10,
			},
			{
				ID:        "std-summary-type",
				Type:      RuleStructure,
				Field:     "summary",
				Validator: &TypeOf{Kind: "string"},
				Severity:  SeverityError,
				Message:   "summary must be a string",
				Priority:  11,
			},
			{
				ID:        "std-goals-type",
				Type:      RuleStructure,
				Field:     "goals",
				Validator: &TypeOf{Kind: "array"},
				Severity:  SeverityError,
				Message:   "goals must be an array when present",
				Priority:  12,
			},
			{
				ID:        "std-age-range",
				Type:      RuleContent,
				Field:     "demographics.age",
				Validator: &NumericRange{Min: 18, Max: 80},
				Severity:  SeverityError,
				Message:   "age must be between 18 and 80",
				Required:  true,
				Priority:  20,
			},
			{
				ID:        "std-income-range",
				Type:      RuleContent,
				Field:     "demographics.income",
				Validator: &NumericRange{Min: 0, Max: 1_000_000},
				Severity:  SeverityError,
				Message:   "income must be between 0 and 1,000,000",
				Priority:  21,
			},
			{
				ID:        "std-email-format",
				Type:      RuleFormat,
				Field:     "email",
				Validator: EmailFormat(),
				Severity:  SeverityError,
				Message:   "email must be a valid address when present",
				Priority:  30,
			},
			{
				ID:        "std-phone-format",
				Type:      RuleFormat,
				Field:     "phone",
				Validator: PhoneFormat(),
				Severity:  SeverityError,
				Message:   "phone must be a valid number when present",
				Priority:  31,
			},
			{
				ID:        "std-created-date",
				Type:      RuleFormat,
				Field:     "created_at",
				Validator: DateFormat(),
				Severity:  SeverityError,
				Message:   "created_at must be an ISO date when present",
				Priority:  32,
			},
			{
				ID:        "std-interests-shape",
				Type:      RuleFormat,
				Field:     "psychographics.interests",
				Validator: &ArrayShape{MinLen: 1, MaxLen: 12, ItemKind: "string", Unique: true},
				Severity:  SeverityError,
				Message:   "interests must be 1-12 unique strings",
				Required:  true,
				Priority:  33,
			},
			{
				ID:        "std-pain-points",
				Type:      RuleBusiness,
				Field:     "pain_points",
				Validator: &MinItems{Min: 1},
				Severity:  SeverityError,
				Message:   "at least one pain point is required",
				Required:  true,
				Priority:  40,
			},
			{
				ID:        "std-completeness",
				Type:      RuleBusiness,
				Field:     "",
				Validator: &Completeness{Threshold: 0.6, Weights: map[string]float64{
					"name":                     2,
					"summary":                  2,
					"demographics.age":         2,
					"demographics.location":    1,
					"demographics.occupation":  1,
					"psychographics.interests": 2,
					"psychographics.values":    1,
					"pain_points":              2,
					"goals":                    1,
				}},
				Severity: SeverityWarning,
				Message:  "persona should populate most expected fields",
				Priority: 50,
			},
		},
		Fallback: RetryStrategy{
			MaxRetries:              3,
			BackoffMultiplier:       2,
			RetryableErrors:         baseRetryable,
			EnhancePromptOnRetry:    true,
			FallbackAfterMaxRetries: true,
			RetryDelay:              time.Second,
		},
		Metadata: map[string]string{"tier": "standard"},
	}
}

func b2bTemplate() *Template {
	retryable := append([]ErrorType{}, baseRetryable...)
	retryable = append(retryable, ErrBusinessRuleViolation, ErrCulturalDataInconsistent)

	return &Template{
		ID:          TemplateB2BID,
		Name:        "B2B persona",
		Version:     "1",
		PersonaType: model.PersonaTypeB2B,
		Rules: []Rule{
			{
				ID:        "b2b-required",
				Type:      RuleStructure,
				Field:     "",
				Validator: &RequiredFields{Paths: []string{"name", "summary", "demographics", "demographics.age"}},
				Severity:  SeverityError,
				Message:   "persona must carry name, summary and demographics",
				Required:  true,
				Priority:  10,
			},
			{
				ID:        "b2b-company",
				Type:      RuleStructure,
				Field:     "company",
				Validator: &NestedObject{RequiredKeys: []string{"name", "industry"}},
				Severity:  SeverityError,
				Message:   "B2B personas must carry a company block with name and industry",
				Required:  true,
				Priority:  11,
			},
			{
				ID:        "b2b-goals-type",
				Type:      RuleStructure,
				Field:     "goals",
				Validator: &TypeOf{Kind: "array"},
				Severity:  SeverityError,
				Message:   "goals must be an array when present",
				Priority:  12,
			},
			{
				ID:        "b2b-age-range",
				Type:      RuleContent,
				Field:     "demographics.age",
				Validator: &NumericRange{Min: 18, Max: 80},
				Severity:  SeverityError,
				Message:   "age must be between 18 and 80",
				Required:  true,
				Priority:  20,
			},
			{
				ID:        "b2b-experience-range",
				Type:      RuleContent,
				Field:     "company.experience_years",
				Validator: &NumericRange{Min: 0, Max: 50},
				Severity:  SeverityError,
				Message:   "experience must be between 0 and 50 years",
				Priority:  21,
			},
			{
				ID:        "b2b-industry-vocab",
				Type:      RuleContent,
				Field:     "company.industry",
				Validator: &CategoryMembership{Category: "industries", Advisory: true},
				Severity:  SeverityWarning,
				Message:   "industry should come from the curated vocabulary",
				Priority:  22,
			},
			{
				ID:        "b2b-seniority-vocab",
				Type:      RuleContent,
				Field:     "company.seniority",
				Validator: &CategoryMembership{Category: "seniority_levels", Advisory: true},
				Severity:  SeverityWarning,
				Message:   "seniority should come from the curated vocabulary",
				Priority:  23,
			},
			{
				ID:        "b2b-title-seniority",
				Type:      RuleContent,
				Field:     "company",
				Validator: &TitleSeniorityConsistency{},
				Severity:  SeverityWarning,
				Message:   "job title and seniority should agree",
				Priority:  24,
			},
			{
				ID:        "b2b-email-format",
				Type:      RuleFormat,
				Field:     "email",
				Validator: EmailFormat(),
				Severity:  SeverityError,
				Message:   "email must be a valid address when present",
				Priority:  30,
			},
			{
				ID:        "b2b-phone-format",
				Type:      RuleFormat,
				Field:     "phone",
				Validator: PhoneFormat(),
				Severity:  SeverityError,
				Message:   "phone must be a valid number when present",
				Priority:  31,
			},
			{
				ID:        "b2b-pain-points",
				Type:      RuleBusiness,
				Field:     "pain_points",
				Validator: &MinItems{Min: 1},
				Severity:  SeverityError,
				Message:   "at least one pain point is required",
				Required:  true,
				Priority:  40,
			},
			{
				ID:        "b2b-buying-behavior",
				Type:      RuleBusiness,
				Field:     "buying_behavior",
				Validator: &BuyingBehaviorPresent{},
				Severity:  SeverityError,
				Message:   "buying behavior must be present with decision factors",
				Required:  true,
				Priority:  41,
			},
			{
				ID:        "b2b-kpis",
				Type:      RuleBusiness,
				Field:     "kpis",
				Validator: &KPIWellFormed{},
				Severity:  SeverityError,
				Message:   "KPIs must read like measurable metrics",
				Priority:  42,
			},
			{
				ID:        "b2b-completeness",
				Type:      RuleBusiness,
				Field:     "",
				Validator: &Completeness{Threshold: 0.7, Weights: map[string]float64{
					"name":                     2,
					"summary":                  2,
					"demographics.age":         2,
					"company.name":             2,
					"company.industry":         2,
					"company.job_title":        1,
					"company.seniority":        1,
					"psychographics.interests": 1,
					"pain_points":              2,
					"goals":                    1,
					"buying_behavior":          2,
				}},
				Severity: SeverityWarning,
				Message:  "B2B persona should populate most expected fields",
				Priority: 50,
			},
		},
		Fallback: RetryStrategy{
			MaxRetries:              3,
			BackoffMultiplier:       2,
			RetryableErrors:         retryable,
			EnhancePromptOnRetry:    true,
			FallbackAfterMaxRetries: true,
			RetryDelay:              time.Second,
		},
		Metadata: map[string]string{"tier": "b2b"},
	}
}
