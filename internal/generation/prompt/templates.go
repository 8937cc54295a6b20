package prompt

// GenerationPreamble frames every persona generation call. Keep it short -
// every token costs latency.
const GenerationPreamble = `You are PersonaCraft, a marketing persona generator. You output only JSON: an array of persona objects, no prose, no markdown fences.`

// Per-tier schema instructions. Args: persona count.
const (
	SchemaSimple = `Generate %d personas. Each object: {"name", "type": "SIMPLE", "summary", "demographics": {"age" (18-80), "location", "occupation"}, "psychographics": {"interests": [..]}, "pain_points": [..]}.`

	SchemaStandard = `Generate %d personas. Each object: {"name", "type": "STANDARD", "summary", "demographics": {"age" (18-80), "gender", "location", "income" (0-1000000), "education", "occupation"}, "psychographics": {"values": [..], "interests": [1-12 unique strings], "lifestyle", "personality": [..]}, "pain_points": [at least 1], "goals": [..], "email" (valid address)}.`

	SchemaB2B = `Generate %d personas. Each object: {"name", "type": "B2B", "summary", "demographics": {"age" (18-80), "location", "occupation"}, "psychographics": {"interests": [..]}, "company": {"name", "industry", "size", "seniority", "job_title", "experience_years" (0-50)}, "pain_points": [at least 1], "goals": [..], "buying_behavior": {"decision_factors": [at least 1], "budget", "purchase_cycle"}, "kpis": [measurable metrics], "email" (valid address)}.`
)

// BriefSection introduces the user brief. Args: brief text.
const BriefSection = `Target audience brief:
%s`

// VocabularySection constrains categorical fields. Args: category name, comma-joined terms.
const VocabularySection = `Allowed %s values: %s.`

// EnhancementSection carries retry remediation guidance. Args: enhancement text.
const EnhancementSection = `IMPORTANT - the previous output failed validation.
%s`
