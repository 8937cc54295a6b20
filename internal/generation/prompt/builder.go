// Package prompt constructs persona generation prompts.
package prompt

import (
	"fmt"
	"strings"

	"personacraft/backend/internal/cultural"
	"personacraft/backend/internal/model"
)

// Builder assembles generation prompts from the brief, the persona tier
// schema, curated vocabularies, and any retry enhancement.
type Builder struct {
	vocab *cultural.Vocabularies
}

// NewBuilder creates a prompt builder. vocab may be nil; vocabulary
// constraints are then omitted from prompts.
func NewBuilder(vocab *cultural.Vocabularies) *Builder {
	return &Builder{vocab: vocab}
}

// BuildGenerationPrompt creates the full prompt for one generation attempt.
// enhancement is empty on the first attempt and carries the retry manager's
// remediation guidance afterwards.
func (b *Builder) BuildGenerationPrompt(brief model.BriefFormData, personaType model.PersonaType, count int, enhancement string) string {
	var sb strings.Builder
	sb.WriteString(GenerationPreamble)
	sb.WriteString("\n\n")

	switch personaType {
	case model.PersonaTypeB2B:
		fmt.Fprintf(&sb, SchemaB2B, count)
	case model.PersonaTypeStandard:
		fmt.Fprintf(&sb, SchemaStandard, count)
	default:
		fmt.Fprintf(&sb, SchemaSimple, count)
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, BriefSection, brief.Brief)
	sb.WriteString("\n")
	if brief.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", brief.Industry)
	}
	if brief.TargetMarket != "" {
		fmt.Fprintf(&sb, "Target market: %s\n", brief.TargetMarket)
	}
	if brief.AgeRange != "" {
		fmt.Fprintf(&sb, "Age range: %s\n", brief.AgeRange)
	}
	if brief.BusinessContext != "" {
		fmt.Fprintf(&sb, "Business context: %s\n", brief.BusinessContext)
	}
	if len(brief.Interests) > 0 {
		fmt.Fprintf(&sb, "Must reflect interests: %s\n", strings.Join(brief.Interests, ", "))
	}

	if b.vocab != nil {
		sb.WriteString("\n")
		if personaType == model.PersonaTypeB2B {
			fmt.Fprintf(&sb, VocabularySection, "industry", strings.Join(b.vocab.Industries, ", "))
			sb.WriteString("\n")
			fmt.Fprintf(&sb, VocabularySection, "seniority", strings.Join(b.vocab.SeniorityLevels, ", "))
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, VocabularySection, "values", strings.Join(b.vocab.Values, ", "))
		sb.WriteString("\n")
	}

	if enhancement != "" {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, EnhancementSection, enhancement)
		sb.WriteString("\n")
	}

	return sb.String()
}
