package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"personacraft/backend/internal/cultural"
	"personacraft/backend/internal/model"
)

func testVocab() *cultural.Vocabularies {
	return &cultural.Vocabularies{
		Industries:      []string{"Technology", "Healthcare"},
		SeniorityLevels: []string{"Senior", "Director"},
		Values:          []string{"Sustainability"},
	}
}

func TestBuildGenerationPromptFirstAttempt(t *testing.T) {
	b := NewBuilder(testVocab())

	p := b.BuildGenerationPrompt(model.BriefFormData{
		Brief:        "eco-conscious commuters",
		Industry:     "Transportation",
		TargetMarket: "Germany",
		Interests:    []string{"cycling", "urban mobility"},
	}, model.PersonaTypeStandard, 3, "")

	assert.Contains(t, p, "eco-conscious commuters")
	assert.Contains(t, p, "Industry: Transportation")
	assert.Contains(t, p, "Target market: Germany")
	assert.Contains(t, p, "cycling, urban mobility")
	assert.Contains(t, p, "Sustainability")
	assert.Contains(t, p, "3")
	assert.NotContains(t, p, "previous output failed")
}

func TestBuildGenerationPromptB2BCarriesVocabularies(t *testing.T) {
	b := NewBuilder(testVocab())

	p := b.BuildGenerationPrompt(model.BriefFormData{Brief: "ops leads"}, model.PersonaTypeB2B, 1, "")

	assert.Contains(t, p, "Technology, Healthcare")
	assert.Contains(t, p, "Senior, Director")
	assert.Contains(t, p, "company")
}

func TestBuildGenerationPromptRetryEnhancement(t *testing.T) {
	b := NewBuilder(nil)

	guidance := "Every persona must include these fields, which were missing: company."
	p := b.BuildGenerationPrompt(model.BriefFormData{Brief: "ops leads"}, model.PersonaTypeB2B, 1, guidance)

	assert.Contains(t, p, guidance)
	assert.Less(t, strings.Index(p, "ops leads"), strings.Index(p, guidance),
		"remediation guidance comes after the brief")
}

func TestBuildGenerationPromptNilVocabulary(t *testing.T) {
	b := NewBuilder(nil)
	p := b.BuildGenerationPrompt(model.BriefFormData{Brief: "designers"}, model.PersonaTypeSimple, 2, "")

	assert.Contains(t, p, "designers")
	assert.NotContains(t, p, "%s")
}
