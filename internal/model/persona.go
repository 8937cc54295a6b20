package model

// PersonaType is the complexity tier a persona was generated against.
type PersonaType string

const (
	PersonaTypeSimple   PersonaType = "SIMPLE"
	PersonaTypeStandard PersonaType = "STANDARD"
	PersonaTypeB2B      PersonaType = "B2B"
)

// Downgrade returns the next simpler persona type, or "" when already at the
// simplest tier. Escalation only ever moves down: B2B -> STANDARD -> SIMPLE.
func (t PersonaType) Downgrade() PersonaType {
	switch t {
	case PersonaTypeB2B:
		return PersonaTypeStandard
	case PersonaTypeStandard:
		return PersonaTypeSimple
	default:
		return ""
	}
}

// Demographics describes the measurable attributes of a persona.
type Demographics struct {
	Age        int    `json:"age"`
	Gender     string `json:"gender,omitempty"`
	Location   string `json:"location,omitempty"`
	Income     int    `json:"income,omitempty"`
	Education  string `json:"education,omitempty"`
	Occupation string `json:"occupation,omitempty"`
}

// Psychographics describes attitudes, values and lifestyle signals.
type Psychographics struct {
	Values      []string `json:"values,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	Lifestyle   string   `json:"lifestyle,omitempty"`
	Personality []string `json:"personality,omitempty"`
}

// CulturalProfile holds Qloo-style cultural affinity data attached to a persona.
type CulturalProfile struct {
	Music       []string `json:"music,omitempty"`
	Brands      []string `json:"brands,omitempty"`
	Restaurants []string `json:"restaurants,omitempty"`
	Movies      []string `json:"movies,omitempty"`
	Travel      []string `json:"travel,omitempty"`
}

// Company describes the B2B context a persona operates in.
type Company struct {
	Name      string `json:"name"`
	Industry  string `json:"industry"`
	Size      string `json:"size,omitempty"`
	Seniority string `json:"seniority,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
	// ExperienceYears is years in role, not total career length.
	ExperienceYears int `json:"experience_years,omitempty"`
}

// BuyingBehavior captures purchase decision signals for business personas.
type BuyingBehavior struct {
	DecisionFactors []string `json:"decision_factors,omitempty"`
	Budget          string   `json:"budget,omitempty"`
	PurchaseCycle   string   `json:"purchase_cycle,omitempty"`
}

// Persona is a generated synthetic marketing-target profile.
type Persona struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           PersonaType      `json:"type"`
	Summary        string           `json:"summary,omitempty"`
	Demographics   Demographics     `json:"demographics"`
	Psychographics Psychographics   `json:"psychographics"`
	Cultural       *CulturalProfile `json:"cultural,omitempty"`
	Company        *Company         `json:"company,omitempty"`
	PainPoints     []string         `json:"pain_points,omitempty"`
	Goals          []string         `json:"goals,omitempty"`
	BuyingBehavior *BuyingBehavior  `json:"buying_behavior,omitempty"`
	KPIs           []string         `json:"kpis,omitempty"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
}

// ValidationMetrics summarizes how a persona fared during validation.
type ValidationMetrics struct {
	Score        float64 `json:"score"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	TemplateID   string  `json:"template_id"`
}

// EnhancedPersona is a Persona plus post-generation enrichment data.
type EnhancedPersona struct {
	Persona
	ValidationMetrics ValidationMetrics `json:"validation_metrics"`
	CulturalSources   []string          `json:"cultural_sources,omitempty"`
}

// VariantKind tags which shape a PersonaVariant carries.
type VariantKind int

const (
	VariantBasic VariantKind = iota
	VariantEnhanced
)

// PersonaVariant is a tagged sum over Persona and EnhancedPersona. The kind is
// decided when the variant is constructed (at parse or enrichment time), never
// by probing fields at use sites.
type PersonaVariant struct {
	Kind     VariantKind
	Basic    *Persona
	Enhanced *EnhancedPersona
}

// NewBasicVariant wraps a plain persona.
func NewBasicVariant(p *Persona) PersonaVariant {
	return PersonaVariant{Kind: VariantBasic, Basic: p}
}

// NewEnhancedVariant wraps an enriched persona.
func NewEnhancedVariant(p *EnhancedPersona) PersonaVariant {
	return PersonaVariant{Kind: VariantEnhanced, Enhanced: p}
}

// Profile returns the underlying Persona regardless of kind.
func (v PersonaVariant) Profile() *Persona {
	if v.Kind == VariantEnhanced {
		return &v.Enhanced.Persona
	}
	return v.Basic
}
